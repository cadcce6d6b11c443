package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/repository"
)

// TrackingService coordinates the session lifecycle. It holds no state of its
// own; every call round-trips through the repositories, so separate CLI
// invocations see the same single-open-session invariant.
type TrackingService struct {
	taskRepo    *repository.TaskRepository
	sessionRepo *repository.SessionRepository
}

func NewTrackingService(taskRepo *repository.TaskRepository, sessionRepo *repository.SessionRepository) *TrackingService {
	return &TrackingService{taskRepo: taskRepo, sessionRepo: sessionRepo}
}

// StartTracking opens a session on the task. A zero `at` means now. At most
// one session may be open across all tasks; a conflicting open session is
// reported with its ids so the caller can point the user at it.
func (s *TrackingService) StartTracking(ctx context.Context, taskID uint, at time.Time) (*model.TimeSession, error) {
	if at.IsZero() {
		at = time.Now()
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clierr.Newf(clierr.TaskNotFound, "task %d not found", taskID)
		}
		return nil, err
	}

	session := &model.TimeSession{TaskID: task.ID, StartedAt: at}
	conflict, err := s.sessionRepo.StartExclusive(ctx, session)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		msg := "another session is already active"
		if conflict.TaskID == task.ID {
			msg = "this task already has an open session"
		}
		return nil, clierr.New(clierr.ActiveSessionExists, msg).WithDetails(map[string]any{
			"session_id": conflict.ID,
			"task_id":    conflict.TaskID,
			"state":      string(conflict.State()),
		})
	}

	if task.State == model.TaskPending {
		task.State = model.TaskInProgress
		if err := s.taskRepo.Save(ctx, task); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// PauseTracking suspends the session. A zero `at` means now.
func (s *TrackingService) PauseTracking(ctx context.Context, sessionID uint, at time.Time) (*model.TimeSession, error) {
	if at.IsZero() {
		at = time.Now()
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Pause(at); err != nil {
		return nil, err
	}

	return s.persistTransition(ctx, session, map[string]any{
		"paused_at":        session.PausedAt,
		"duration_seconds": session.DurationSeconds,
	}, clierr.InvalidState)
}

// ResumeTracking continues a paused session. A zero `at` means now.
func (s *TrackingService) ResumeTracking(ctx context.Context, sessionID uint, at time.Time) (*model.TimeSession, error) {
	if at.IsZero() {
		at = time.Now()
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Resume(at); err != nil {
		return nil, err
	}

	return s.persistTransition(ctx, session, map[string]any{
		"resumed_at":       session.ResumedAt,
		"duration_seconds": session.DurationSeconds,
	}, clierr.InvalidState)
}

// StopTracking closes the session and freezes its duration. A zero `at`
// means now.
func (s *TrackingService) StopTracking(ctx context.Context, sessionID uint, at time.Time) (*model.TimeSession, error) {
	if at.IsZero() {
		at = time.Now()
	}

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Stop(at); err != nil {
		return nil, err
	}

	return s.persistTransition(ctx, session, map[string]any{
		"stopped_at":       session.StoppedAt,
		"duration_seconds": session.DurationSeconds,
	}, clierr.AlreadyStopped)
}

// GetActiveSession returns the single open session, or nil when nothing is
// being tracked.
func (s *TrackingService) GetActiveSession(ctx context.Context) (*model.TimeSession, error) {
	session, err := s.sessionRepo.GetOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// GetActiveSessionForTask returns the task's open session, or nil when the
// task is not being tracked.
func (s *TrackingService) GetActiveSessionForTask(ctx context.Context, taskID uint) (*model.TimeSession, error) {
	session, err := s.sessionRepo.GetOpenForTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *TrackingService) GetPausedSessions(ctx context.Context) ([]model.TimeSession, error) {
	return s.sessionRepo.GetPaused(ctx)
}

func (s *TrackingService) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]model.TimeSession, error) {
	return s.sessionRepo.List(ctx, filter)
}

func (s *TrackingService) loadSession(ctx context.Context, sessionID uint) (*model.TimeSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clierr.Newf(clierr.SessionNotFound, "session %d not found", sessionID)
		}
		return nil, err
	}
	return session, nil
}

// persistTransition writes the transition fields while the row is still open.
// When another writer closed the row after our load, the guarded update
// touches nothing and the stale transition is reported with staleCode.
func (s *TrackingService) persistTransition(ctx context.Context, session *model.TimeSession, fields map[string]any, staleCode string) (*model.TimeSession, error) {
	updated, err := s.sessionRepo.UpdateOpen(ctx, session.ID, fields)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, clierr.Newf(staleCode, "session %d is no longer open", session.ID)
	}
	return session, nil
}
