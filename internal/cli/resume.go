package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/model"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the paused session",
	Args:  cobra.NoArgs,
	RunE:  runResume,
}

func init() {
	addTransitionFlags(resumeCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, _ []string) error {
	return runSessionTransition(cmd, "Resumed",
		func(app *App, ctx context.Context, id uint, at time.Time) (*model.TimeSession, error) {
			return app.Tracking.ResumeTracking(ctx, id, at)
		})
}
