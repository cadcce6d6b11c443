package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is currently being tracked",
	Long:  `Shows the open session, its task, and the elapsed active time so far.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusResult is the JSON shape of the status command.
type statusResult struct {
	Tracking       bool         `json:"tracking"`
	Session        *sessionView `json:"session,omitempty"`
	TaskRef        string       `json:"taskRef,omitempty"`
	TaskTitle      string       `json:"taskTitle,omitempty"`
	ElapsedSeconds int64        `json:"elapsedSeconds,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	session, err := app.Tracking.GetActiveSession(ctx)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if session == nil {
		if format == output.FormatJSON {
			return output.JSON(os.Stdout, statusResult{Tracking: false})
		}
		output.Messagef(os.Stdout, "Nothing is being tracked. Start with 'tempo start PROJECT/NUMBER'.")
		return nil
	}

	task, err := app.Tasks.GetTask(ctx, session.TaskID)
	if err != nil {
		return err
	}
	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	elapsed, err := session.DurationAt(time.Now())
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		view := viewSession(session)
		return output.JSON(os.Stdout, statusResult{
			Tracking:       true,
			Session:        &view,
			TaskRef:        ref,
			TaskTitle:      task.Title,
			ElapsedSeconds: elapsed,
		})
	case output.FormatCompact:
		output.StatusCompact(os.Stdout, app.Location, session, task.Title, ref, elapsed)
	default:
		output.SessionStatus(os.Stdout, app.Location, session, task.Title, ref, elapsed)
	}
	return nil
}
