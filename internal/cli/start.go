package cli

import (
	"os"

	"github.com/spf13/cobra"

	"tempo/internal/output"
)

var startCmd = &cobra.Command{
	Use:   "start TASK",
	Short: "Start tracking time against a task",
	Long: `Starts a new time session on the given task. The task is addressed as
PROJECT/NUMBER (for example api/3) or by its numeric id.

Only one session can be open at a time; stop the current one first.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("at", "", `explicit start time (RFC3339, "2006-01-02 15:04", or "15:04")`)
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	task, err := app.Tasks.GetTaskByReference(ctx, args[0])
	if err != nil {
		return err
	}

	atStr, _ := cmd.Flags().GetString("at")
	at, err := parseTimeFlag(atStr, app.Location)
	if err != nil {
		return err
	}

	session, err := app.Tracking.StartTracking(ctx, task.ID, at)
	if err != nil {
		return err
	}

	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, viewSession(session))
	}
	output.Messagef(os.Stdout, "Started session #%d on %s: %s", session.ID, ref, task.Title)
	return nil
}
