package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tempo/internal/model"
	"tempo/internal/service"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	stateStyles = map[string]lipgloss.Style{
		"pending":     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		"in-progress": lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		"completed":   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		"blocked":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	sessionStyles = map[string]lipgloss.Style{
		"active":  lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		"paused":  lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"stopped": lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	tagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
)

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	stateStyles = map[string]lipgloss.Style{}
	sessionStyles = map[string]lipgloss.Style{}
	tagStyle = lipgloss.NewStyle()
}

// ProjectTable renders projects as a formatted table.
func ProjectTable(w io.Writer, projects []model.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(os.Stderr, "No projects found.")
		return
	}

	const pad = 2
	nameW := 6
	for _, p := range projects {
		nameW = max(nameW, len(p.Name)+pad)
	}

	header := fmt.Sprintf("%-*s %s", nameW, "NAME", "DESCRIPTION")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))
	for _, p := range projects {
		desc := p.Description
		if desc == "" {
			desc = dimStyle.Render("--")
		}
		fmt.Fprintln(w, strings.TrimRight(fmt.Sprintf("%-*s %s", nameW, p.Name, desc), " "))
	}
}

// TaskTable renders a list of tasks as a formatted table. refs maps task ids
// to their project/number reference.
func TaskTable(w io.Writer, tasks []model.Task, refs map[uint]string) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	// Calculate column widths.
	const pad = 2
	refW, stateW, titleW, ptsW, estW := 5, 7, 7, 5, 5
	for _, t := range tasks {
		refW = max(refW, len(refs[t.ID])+pad)
		stateW = max(stateW, len(t.State)+pad)
		titleW = max(titleW, min(len(t.Title)+pad, 50)) // max title column width
		ptsW = max(ptsW, len(FormatPoints(t.SizeEstimate))+pad)
		estW = max(estW, len(FormatHours(t.TimeEstimateHours))+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
		refW, "TASK", stateW, "STATE", titleW, "TITLE", ptsW, "PTS", estW, "EST", "TAGS")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		title := t.Title
		const maxTitle = 48
		if len(title) > maxTitle {
			title = title[:maxTitle-3] + "..."
		}
		tags := strings.Join(t.Tags, ",")
		if tags == "" {
			tags = dimStyle.Render("--")
		} else {
			tags = tagStyle.Render(tags)
		}

		row := fmt.Sprintf("%-*s %s %s %s %s %s",
			refW, refs[t.ID],
			padRight(styledValue(string(t.State), stateStyles), stateW),
			padRight(title, titleW),
			padRight(FormatPoints(t.SizeEstimate), ptsW),
			padRight(FormatHours(t.TimeEstimateHours), estW),
			tags)
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail. Tracked time is the sum
// of the given sessions' stored durations; open is the task's open session if
// one exists, with its live elapsed seconds.
func TaskDetail(w io.Writer, loc *time.Location, t *model.Task, ref string, sessions []model.TimeSession, open *model.TimeSession, elapsed int64) {
	titleLine := fmt.Sprintf("Task %s: %s", ref, t.Title)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("-", len(titleLine)))

	printField(w, "State", styledValue(string(t.State), stateStyles))
	if t.Description != "" {
		printField(w, "Description", t.Description)
	}
	printField(w, "Points", FormatPoints(t.SizeEstimate))
	printField(w, "Estimate", FormatHours(t.TimeEstimateHours))
	if len(t.Tags) > 0 {
		printField(w, "Tags", tagStyle.Render(strings.Join(t.Tags, ", ")))
	} else {
		printField(w, "Tags", dimStyle.Render("--"))
	}
	printField(w, "Created", FormatClock(t.CreatedAt, loc))
	printField(w, "Updated", FormatClock(t.UpdatedAt, loc))

	var total int64
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	printField(w, "Sessions", strconv.Itoa(len(sessions)))
	printField(w, "Tracked", FormatSeconds(total))
	if open != nil {
		printField(w, "Tracking", fmt.Sprintf("%s (%s this session)",
			styledValue(string(open.State()), sessionStyles), FormatSeconds(elapsed)))
	}
}

// SessionTable renders sessions as a formatted table, newest first.
func SessionTable(w io.Writer, loc *time.Location, sessions []model.TimeSession, refs map[uint]string) {
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "No sessions found.")
		return
	}

	const pad = 2
	idW, refW, stateW := 4, 6, 9
	for _, s := range sessions {
		idW = max(idW, len(strconv.Itoa(int(s.ID)))+pad)
		refW = max(refW, len(refs[s.TaskID])+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-18s %s",
		idW, "ID", refW, "TASK", stateW, "STATE", "STARTED", "DURATION")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, s := range sessions {
		row := fmt.Sprintf("%-*d %-*s %s %-18s %s",
			idW, s.ID,
			refW, refs[s.TaskID],
			padRight(styledValue(string(s.State()), sessionStyles), stateW),
			FormatClock(s.StartedAt, loc),
			FormatSeconds(s.DurationSeconds))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// SessionStatus renders the currently open session. elapsed is the live
// active duration in seconds.
func SessionStatus(w io.Writer, loc *time.Location, s *model.TimeSession, title, ref string, elapsed int64) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Tracking %s: %s", ref, title)))

	printField(w, "Session", strconv.Itoa(int(s.ID)))
	printField(w, "State", styledValue(string(s.State()), sessionStyles))
	printField(w, "Started", FormatClock(s.StartedAt, loc))
	if s.PausedAt != nil {
		printField(w, "Paused", FormatClock(*s.PausedAt, loc))
	}
	if s.ResumedAt != nil {
		printField(w, "Resumed", FormatClock(*s.ResumedAt, loc))
	}
	printField(w, "Elapsed", FormatSeconds(elapsed))
}

// TimeReportTable renders a time report.
func TimeReportTable(w io.Writer, r *service.TimeReport) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Time report"))

	printField(w, "Total", FormatSeconds(r.TotalTime))
	printField(w, "Sessions", strconv.Itoa(r.SessionCount))
	printField(w, "Average", FormatSeconds(r.AverageSessionTime))
	printField(w, "Longest", FormatSeconds(r.LongestSession))
	printField(w, "Shortest", FormatSeconds(r.ShortestSession))
}

// VelocityReportTable renders a velocity report with its trend buckets.
func VelocityReportTable(w io.Writer, loc *time.Location, r *service.VelocityReport) {
	title := fmt.Sprintf("Velocity (%s) %s to %s",
		r.Period, FormatDay(r.StartDate, loc), FormatDay(r.EndDate, loc))
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(title))

	printField(w, "Completed", fmt.Sprintf("%d of %d tasks", r.CompletedTasks, r.TotalTasks))
	printField(w, "Velocity", fmt.Sprintf("%.2f tasks/day", r.Velocity))
	printField(w, "Throughput", fmt.Sprintf("%.2f tasks/day", r.Throughput))
	printField(w, "Rate", fmt.Sprintf("%.1f%%", r.CompletionRate))

	if len(r.Trend) == 0 {
		return
	}
	fmt.Fprintln(w)
	header := fmt.Sprintf("%-26s %9s %9s", "BUCKET", "COMPLETED", "VELOCITY")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, b := range r.Trend {
		bucket := FormatDay(b.StartDate, loc) + " to " + FormatDay(b.EndDate, loc)
		fmt.Fprintf(w, "%-26s %9d %9.2f\n", bucket, b.CompletedTasks, b.Velocity)
	}
}

// EstimationReportTable renders an estimation accuracy report.
func EstimationReportTable(w io.Writer, r *service.EstimationReport) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Estimation accuracy"))

	printField(w, "Tasks", fmt.Sprintf("%d (%d estimated, %.1f%% coverage)",
		r.TotalTasks, r.TasksWithEstimates, r.EstimationCoverage))
	printField(w, "Accuracy", fmt.Sprintf("%.1f%%", r.TimeAccuracy))
	printField(w, "Bias", fmt.Sprintf("%+.1f%%", r.TimeBias))

	if len(r.PerTask) > 0 {
		fmt.Fprintln(w)
		const pad = 2
		titleW := 6
		for _, s := range r.PerTask {
			titleW = max(titleW, min(len(s.Title)+pad, 40)) // max title column width
		}
		header := fmt.Sprintf("%-*s %9s %9s %9s %8s", titleW, "TASK", "ESTIMATE", "ACTUAL", "ACCURACY", "BIAS")
		fmt.Fprintln(w, headerStyle.Render(header))
		for _, s := range r.PerTask {
			title := s.Title
			const maxTitle = 38
			if len(title) > maxTitle {
				title = title[:maxTitle-3] + "..."
			}
			fmt.Fprintf(w, "%-*s %9s %9s %8.1f%% %+7.1f%%\n",
				titleW, title,
				FormatSeconds(s.EstimateSeconds), FormatSeconds(s.ActualSeconds),
				s.TimeAccuracy, s.TimeBias)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("RECOMMENDATIONS"))
		for _, rec := range r.Recommendations {
			fmt.Fprintln(w, "  - "+rec)
		}
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
