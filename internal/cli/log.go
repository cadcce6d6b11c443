package cli

import (
	"os"

	"github.com/spf13/cobra"

	"tempo/internal/output"
	"tempo/internal/repository"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List recent sessions",
	Long:  `Lists sessions newest first, optionally filtered by task or time window.`,
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().String("task", "", "filter by task (PROJECT/NUMBER or id)")
	logCmd.Flags().String("from", "", "include sessions started at or after this time")
	logCmd.Flags().String("to", "", "include sessions started before this time")
	logCmd.Flags().IntP("limit", "n", 20, "limit number of sessions")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	var filter repository.SessionFilter
	if taskRef, _ := cmd.Flags().GetString("task"); taskRef != "" {
		task, err := app.Tasks.GetTaskByReference(ctx, taskRef)
		if err != nil {
			return err
		}
		filter.TaskIDs = []uint{task.ID}
	}

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	filter.From, filter.To, err = parseRangeFlags(fromStr, toStr, app.Location)
	if err != nil {
		return err
	}
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	sessions, err := app.Tracking.ListSessions(ctx, filter)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if format == output.FormatJSON {
		views := make([]sessionView, 0, len(sessions))
		for i := range sessions {
			views = append(views, viewSession(&sessions[i]))
		}
		return output.JSON(os.Stdout, views)
	}

	refs, err := app.sessionTaskRefs(ctx, sessions)
	if err != nil {
		return err
	}
	if format == output.FormatCompact {
		output.SessionCompact(os.Stdout, app.Location, sessions, refs)
		return nil
	}
	output.SessionTable(os.Stdout, app.Location, sessions, refs)
	return nil
}
