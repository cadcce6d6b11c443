package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/model"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the open session",
	Long: `Stops the open session and freezes its total. Stopped sessions are
final and feed the time and estimation reports.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	addTransitionFlags(stopCmd)
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, _ []string) error {
	return runSessionTransition(cmd, "Stopped",
		func(app *App, ctx context.Context, id uint, at time.Time) (*model.TimeSession, error) {
			return app.Tracking.StopTracking(ctx, id, at)
		})
}
