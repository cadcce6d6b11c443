package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/model"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the open session",
	Long: `Pauses the open session so time stops accumulating until resume.
Each session supports a single pause/resume cycle; after resuming, the
only remaining transition is stop.`,
	Args: cobra.NoArgs,
	RunE: runPause,
}

func init() {
	addTransitionFlags(pauseCmd)
	rootCmd.AddCommand(pauseCmd)
}

func runPause(cmd *cobra.Command, _ []string) error {
	return runSessionTransition(cmd, "Paused",
		func(app *App, ctx context.Context, id uint, at time.Time) (*model.TimeSession, error) {
			return app.Tracking.PauseTracking(ctx, id, at)
		})
}
