package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/repository"
)

// Velocity report periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// ReportFilter scopes a report. Zero fields widen it. From/To bound the
// report's time axis: session start times for the time and estimation
// reports, task completion times for the velocity report.
type ReportFilter struct {
	Project string
	Tag     string
	From    *time.Time
	To      *time.Time
}

// TimeReport aggregates tracked time over a set of sessions. All values are
// whole seconds.
type TimeReport struct {
	TotalTime          int64 `json:"totalTime"`
	SessionCount       int   `json:"sessionCount"`
	AverageSessionTime int64 `json:"averageSessionTime"`
	LongestSession     int64 `json:"longestSession"`
	ShortestSession    int64 `json:"shortestSession"`
}

// VelocityBucket is one trend sample covering [StartDate, EndDate).
type VelocityBucket struct {
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	CompletedTasks int       `json:"completedTasks"`
	Velocity       float64   `json:"velocity"`
}

// VelocityReport measures task completion over a date range.
type VelocityReport struct {
	Period         string           `json:"period"`
	StartDate      time.Time        `json:"startDate"`
	EndDate        time.Time        `json:"endDate"`
	PeriodDays     int              `json:"periodDays"`
	TotalTasks     int              `json:"totalTasks"`
	CompletedTasks int              `json:"completedTasks"`
	Velocity       float64          `json:"velocity"`
	Throughput     float64          `json:"throughput"`
	CompletionRate float64          `json:"completionRate"`
	Trend          []VelocityBucket `json:"trend"`
}

// TaskAccuracy is one estimation sample: a task's time estimate against the
// time actually tracked on it.
type TaskAccuracy struct {
	TaskID          uint    `json:"taskId"`
	Title           string  `json:"title"`
	EstimateSeconds int64   `json:"estimateSeconds"`
	ActualSeconds   int64   `json:"actualSeconds"`
	TimeAccuracy    float64 `json:"timeAccuracy"`
	TimeBias        float64 `json:"timeBias"`
}

// EstimationReport compares time estimates with tracked time. TimeBias is a
// signed percentage, positive when tasks run over their estimates.
type EstimationReport struct {
	TotalTasks         int            `json:"totalTasks"`
	TasksWithEstimates int            `json:"tasksWithEstimates"`
	EstimationCoverage float64        `json:"estimationCoverage"`
	TimeAccuracy       float64        `json:"timeAccuracy"`
	TimeBias           float64        `json:"timeBias"`
	PerTask            []TaskAccuracy `json:"perTaskAccuracy"`
	Recommendations    []string       `json:"recommendations"`
}

// ReportService computes time, velocity, and estimation reports from task
// and session history. Empty inputs produce zero-valued reports, never
// errors.
type ReportService struct {
	taskRepo    *repository.TaskRepository
	sessionRepo *repository.SessionRepository
	projectRepo *repository.ProjectRepository
}

func NewReportService(taskRepo *repository.TaskRepository, sessionRepo *repository.SessionRepository, projectRepo *repository.ProjectRepository) *ReportService {
	return &ReportService{taskRepo: taskRepo, sessionRepo: sessionRepo, projectRepo: projectRepo}
}

func (s *ReportService) TimeReport(ctx context.Context, filter ReportFilter) (*TimeReport, error) {
	report := &TimeReport{}

	sessions, err := s.scopedSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return report, nil
	}

	report.SessionCount = len(sessions)
	report.ShortestSession = sessions[0].DurationSeconds
	for _, session := range sessions {
		d := session.DurationSeconds
		report.TotalTime += d
		if d > report.LongestSession {
			report.LongestSession = d
		}
		if d < report.ShortestSession {
			report.ShortestSession = d
		}
	}
	report.AverageSessionTime = report.TotalTime / int64(report.SessionCount)
	return report, nil
}

func (s *ReportService) VelocityReport(ctx context.Context, period string, filter ReportFilter) (*VelocityReport, error) {
	days, err := bucketDays(period)
	if err != nil {
		return nil, err
	}

	to := time.Now()
	if filter.To != nil {
		to = *filter.To
	}
	from := to.AddDate(0, 0, -4*days)
	if filter.From != nil {
		from = *filter.From
	}
	if !to.After(from) {
		return nil, clierr.New(clierr.InvalidInput, "report range must end after it starts")
	}

	tasks, err := s.resolveTasks(ctx, filter.Project, filter.Tag, &from, &to)
	if err != nil {
		return nil, err
	}

	report := &VelocityReport{
		Period:     period,
		StartDate:  from,
		EndDate:    to,
		PeriodDays: ceilDays(from, to),
		TotalTasks: len(tasks),
	}
	for _, task := range tasks {
		if task.State == model.TaskCompleted {
			report.CompletedTasks++
		}
	}
	if report.PeriodDays > 0 {
		report.Velocity = float64(report.CompletedTasks) / float64(report.PeriodDays)
	}
	// Throughput mirrors velocity today; both names stay on the wire for
	// downstream consumers.
	report.Throughput = report.Velocity
	if report.TotalTasks > 0 {
		report.CompletionRate = float64(report.CompletedTasks) / float64(report.TotalTasks) * 100
	}

	for bucketStart := from; bucketStart.Before(to); bucketStart = bucketStart.AddDate(0, 0, days) {
		bucketEnd := bucketStart.AddDate(0, 0, days)
		if bucketEnd.After(to) {
			bucketEnd = to
		}
		bucket := VelocityBucket{StartDate: bucketStart, EndDate: bucketEnd}
		for _, task := range tasks {
			if task.State != model.TaskCompleted {
				continue
			}
			if !task.UpdatedAt.Before(bucketStart) && task.UpdatedAt.Before(bucketEnd) {
				bucket.CompletedTasks++
			}
		}
		if d := ceilDays(bucketStart, bucketEnd); d > 0 {
			bucket.Velocity = float64(bucket.CompletedTasks) / float64(d)
		}
		report.Trend = append(report.Trend, bucket)
	}

	return report, nil
}

func (s *ReportService) EstimationReport(ctx context.Context, filter ReportFilter) (*EstimationReport, error) {
	tasks, err := s.resolveTasks(ctx, filter.Project, filter.Tag, nil, nil)
	if err != nil {
		return nil, err
	}

	report := &EstimationReport{TotalTasks: len(tasks)}
	if len(tasks) == 0 {
		return report, nil
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionFilter{
		TaskIDs: taskIDs(tasks),
		From:    filter.From,
		To:      filter.To,
	})
	if err != nil {
		return nil, err
	}
	actuals := make(map[uint]int64)
	for _, session := range sessions {
		actuals[session.TaskID] += session.DurationSeconds
	}

	var accuracySum, biasSum float64
	for _, task := range tasks {
		if task.TimeEstimateHours == nil {
			continue
		}
		report.TasksWithEstimates++

		actual, tracked := actuals[task.ID]
		if !tracked {
			continue
		}
		estimate := int64(*task.TimeEstimateHours * 3600)
		if estimate <= 0 {
			continue
		}

		deviation := float64(actual-estimate) / float64(estimate) * 100
		sample := TaskAccuracy{
			TaskID:          task.ID,
			Title:           task.Title,
			EstimateSeconds: estimate,
			ActualSeconds:   actual,
			TimeAccuracy:    100 - math.Abs(deviation),
			TimeBias:        deviation,
		}
		report.PerTask = append(report.PerTask, sample)
		accuracySum += sample.TimeAccuracy
		biasSum += sample.TimeBias
	}

	report.EstimationCoverage = float64(report.TasksWithEstimates) / float64(report.TotalTasks) * 100
	if len(report.PerTask) > 0 {
		report.TimeAccuracy = accuracySum / float64(len(report.PerTask))
		report.TimeBias = biasSum / float64(len(report.PerTask))
		report.Recommendations = recommendations(report.TimeBias, report.EstimationCoverage)
	}
	return report, nil
}

// scopedSessions returns the sessions a time-axis report aggregates:
// sessions of the filtered task set that started within [From, To).
func (s *ReportService) scopedSessions(ctx context.Context, filter ReportFilter) ([]model.TimeSession, error) {
	sessionFilter := repository.SessionFilter{From: filter.From, To: filter.To}
	if filter.Project != "" || filter.Tag != "" {
		tasks, err := s.resolveTasks(ctx, filter.Project, filter.Tag, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			return nil, nil
		}
		sessionFilter.TaskIDs = taskIDs(tasks)
	}
	return s.sessionRepo.List(ctx, sessionFilter)
}

func (s *ReportService) resolveTasks(ctx context.Context, project, tag string, from, to *time.Time) ([]model.Task, error) {
	filter := repository.TaskFilter{From: from, To: to}
	if project != "" {
		p, err := s.projectRepo.GetByName(ctx, project)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, clierr.Newf(clierr.ProjectNotFound, "project %q not found", project)
			}
			return nil, err
		}
		filter.ProjectID = &p.ID
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return tasks, nil
	}
	tagged := tasks[:0]
	for _, task := range tasks {
		if task.HasTag(tag) {
			tagged = append(tagged, task)
		}
	}
	return tagged, nil
}

// recommendations turns aggregate bias and coverage into plain hints.
func recommendations(bias, coverage float64) []string {
	var recs []string
	switch {
	case math.Abs(bias) <= 10:
		recs = append(recs, "Estimates are well calibrated; keep the current approach.")
	case bias > 25:
		recs = append(recs, fmt.Sprintf("Tasks run %.0f%% over their estimates; pad estimates or split large tasks.", bias))
	case bias < -25:
		recs = append(recs, fmt.Sprintf("Tasks finish %.0f%% under their estimates; estimates can be tightened.", -bias))
	case bias > 0:
		recs = append(recs, "Estimates trend slightly low; recent tasks ran over.")
	default:
		recs = append(recs, "Estimates trend slightly high; recent tasks finished early.")
	}
	if coverage < 50 {
		recs = append(recs, fmt.Sprintf("Only %.0f%% of tasks carry a time estimate; add estimates to make this report representative.", coverage))
	}
	return recs
}

func bucketDays(period string) (int, error) {
	switch period {
	case PeriodWeek:
		return 7, nil
	case PeriodMonth:
		return 30, nil
	default:
		return 0, clierr.Newf(clierr.InvalidInput, "invalid period %q; use week or month", period)
	}
}

func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

func taskIDs(tasks []model.Task) []uint {
	ids := make([]uint, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
