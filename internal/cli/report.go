package cli

import (
	"os"

	"github.com/spf13/cobra"

	"tempo/internal/output"
	"tempo/internal/service"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports from tracked time",
	Long: `Reports aggregate the session and task history: total tracked time,
completion velocity, and how estimates compare with reality.`,
}

var reportTimeCmd = &cobra.Command{
	Use:   "time",
	Short: "Summarize tracked time",
	Args:  cobra.NoArgs,
	RunE:  runReportTime,
}

var reportVelocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Measure task completion rate over a date range",
	Args:  cobra.NoArgs,
	RunE:  runReportVelocity,
}

var reportEstimatesCmd = &cobra.Command{
	Use:   "estimates",
	Short: "Compare time estimates with tracked time",
	Args:  cobra.NoArgs,
	RunE:  runReportEstimates,
}

func init() {
	for _, cmd := range []*cobra.Command{reportTimeCmd, reportVelocityCmd, reportEstimatesCmd} {
		cmd.Flags().StringP("project", "p", "", "scope to a project")
		cmd.Flags().String("tag", "", "scope to a tag")
		cmd.Flags().String("from", "", "range start (inclusive)")
		cmd.Flags().String("to", "", "range end (exclusive)")
		reportCmd.AddCommand(cmd)
	}
	reportVelocityCmd.Flags().String("period", service.PeriodWeek, "trend bucket size (week or month)")
	rootCmd.AddCommand(reportCmd)
}

// reportFilter builds the common report scope from flags.
func reportFilter(cmd *cobra.Command, app *App) (service.ReportFilter, error) {
	var filter service.ReportFilter
	filter.Project, _ = cmd.Flags().GetString("project")
	filter.Tag, _ = cmd.Flags().GetString("tag")

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	from, to, err := parseRangeFlags(fromStr, toStr, app.Location)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func runReportTime(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	filter, err := reportFilter(cmd, app)
	if err != nil {
		return err
	}

	report, err := app.Reports.TimeReport(cmd.Context(), filter)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, report)
	}
	if format == output.FormatCompact {
		output.TimeReportCompact(os.Stdout, report)
		return nil
	}
	output.TimeReportTable(os.Stdout, report)
	return nil
}

func runReportVelocity(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	filter, err := reportFilter(cmd, app)
	if err != nil {
		return err
	}
	period, _ := cmd.Flags().GetString("period")

	report, err := app.Reports.VelocityReport(cmd.Context(), period, filter)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, report)
	}
	if format == output.FormatCompact {
		output.VelocityReportCompact(os.Stdout, app.Location, report)
		return nil
	}
	output.VelocityReportTable(os.Stdout, app.Location, report)
	return nil
}

func runReportEstimates(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	filter, err := reportFilter(cmd, app)
	if err != nil {
		return err
	}

	report, err := app.Reports.EstimationReport(cmd.Context(), filter)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, report)
	}
	if format == output.FormatCompact {
		output.EstimationReportCompact(os.Stdout, report)
		return nil
	}
	output.EstimationReportTable(os.Stdout, report)
	return nil
}
