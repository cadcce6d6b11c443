package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tempo/internal/model"
	"tempo/internal/service"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []model.Task, refs map[uint]string) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t, refs[t.ID]))
	}
}

// SessionCompact renders sessions in one-line-per-record compact format.
func SessionCompact(w io.Writer, loc *time.Location, sessions []model.TimeSession, refs map[uint]string) {
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found.")
		return
	}
	for _, s := range sessions {
		fmt.Fprintln(w, formatSessionLine(loc, s, refs[s.TaskID]))
	}
}

// StatusCompact renders the open session as a single line. elapsed is the
// live active duration in seconds.
func StatusCompact(w io.Writer, loc *time.Location, s *model.TimeSession, title, ref string, elapsed int64) {
	fmt.Fprintf(w, "#%d %s [%s] %s since:%s elapsed:%s\n",
		s.ID, ref, s.State(), title,
		FormatClock(s.StartedAt, loc), FormatSeconds(elapsed))
}

// TimeReportCompact renders a time report as a single line.
func TimeReportCompact(w io.Writer, r *service.TimeReport) {
	fmt.Fprintf(w, "total:%s sessions:%d avg:%s longest:%s shortest:%s\n",
		FormatSeconds(r.TotalTime), r.SessionCount,
		FormatSeconds(r.AverageSessionTime),
		FormatSeconds(r.LongestSession), FormatSeconds(r.ShortestSession))
}

// VelocityReportCompact renders a velocity report with one line per bucket.
func VelocityReportCompact(w io.Writer, loc *time.Location, r *service.VelocityReport) {
	fmt.Fprintf(w, "%s %s..%s completed:%d/%d velocity:%.2f rate:%.1f%%\n",
		r.Period, FormatDay(r.StartDate, loc), FormatDay(r.EndDate, loc),
		r.CompletedTasks, r.TotalTasks, r.Velocity, r.CompletionRate)
	for _, b := range r.Trend {
		fmt.Fprintf(w, "  %s..%s completed:%d velocity:%.2f\n",
			FormatDay(b.StartDate, loc), FormatDay(b.EndDate, loc),
			b.CompletedTasks, b.Velocity)
	}
}

// EstimationReportCompact renders an estimation report with one line per task.
func EstimationReportCompact(w io.Writer, r *service.EstimationReport) {
	fmt.Fprintf(w, "tasks:%d estimated:%d coverage:%.1f%% accuracy:%.1f%% bias:%+.1f%%\n",
		r.TotalTasks, r.TasksWithEstimates, r.EstimationCoverage,
		r.TimeAccuracy, r.TimeBias)
	for _, s := range r.PerTask {
		fmt.Fprintf(w, "  #%d %s est:%s actual:%s accuracy:%.1f%% bias:%+.1f%%\n",
			s.TaskID, s.Title, FormatSeconds(s.EstimateSeconds), FormatSeconds(s.ActualSeconds),
			s.TimeAccuracy, s.TimeBias)
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t model.Task, ref string) string {
	line := ref + " [" + string(t.State) + "] " + t.Title

	if len(t.Tags) > 0 {
		line += " (" + strings.Join(t.Tags, ", ") + ")"
	}
	if t.SizeEstimate != nil {
		line += " pts:" + FormatPoints(t.SizeEstimate)
	}
	if t.TimeEstimateHours != nil {
		line += " est:" + FormatHours(t.TimeEstimateHours)
	}

	return line
}

// formatSessionLine builds the one-line representation of a session.
func formatSessionLine(loc *time.Location, s model.TimeSession, ref string) string {
	return "#" + strconv.Itoa(int(s.ID)) + " " + ref +
		" [" + string(s.State()) + "] " +
		FormatClock(s.StartedAt, loc) + " " +
		FormatSeconds(s.DurationSeconds)
}
