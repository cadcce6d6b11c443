package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/repository"
)

// testEnv wires the services over a throwaway sqlite file, the same way
// main does it.
type testEnv struct {
	db       *gorm.DB
	sessions *repository.SessionRepository
	tasks    *TaskService
	projects *ProjectService
	tracking *TrackingService
	reports  *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tempo.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	return &testEnv{
		db:       db,
		sessions: sessionRepo,
		tasks:    NewTaskService(taskRepo, projectRepo),
		projects: NewProjectService(projectRepo),
		tracking: NewTrackingService(taskRepo, sessionRepo),
		reports:  NewReportService(taskRepo, sessionRepo, projectRepo),
	}
}

func (e *testEnv) createTask(t *testing.T, project, title string, estimateHours *float64) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), TaskInput{
		Project:           project,
		Title:             title,
		TimeEstimateHours: estimateHours,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

// addStoppedSession records a finished session directly, bypassing the
// single-open-session gate so fixtures can hold many of them.
func (e *testEnv) addStoppedSession(t *testing.T, taskID uint, startedAt time.Time, duration int64) *model.TimeSession {
	t.Helper()
	stoppedAt := startedAt.Add(time.Duration(duration) * time.Second)
	session := model.TimeSession{
		TaskID:          taskID,
		StartedAt:       startedAt,
		StoppedAt:       &stoppedAt,
		DurationSeconds: duration,
	}
	if err := e.db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return &session
}

// touchUpdatedAt pins a task's updated_at, which reports read as the
// completion time.
func (e *testEnv) touchUpdatedAt(t *testing.T, taskID uint, at time.Time) {
	t.Helper()
	if err := e.db.Model(&model.Task{}).Where("id = ?", taskID).
		UpdateColumn("updated_at", at).Error; err != nil {
		t.Fatalf("pin updated_at: %v", err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var ce *clierr.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *clierr.Error, got %T: %v", err, err)
	}
	if ce.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, ce.Code, err)
	}
}

func floatEq(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}
