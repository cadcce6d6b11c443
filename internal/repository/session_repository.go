package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tempo/internal/model"
)

// SessionFilter narrows List results. Nil fields are ignored.
type SessionFilter struct {
	TaskIDs []uint
	From    *time.Time // inclusive lower bound on started_at
	To      *time.Time // exclusive upper bound on started_at
	Limit   int
}

// SessionRepository stores time sessions. A session is open until its
// stopped_at column is set; the schema allows at most one open row.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// StartExclusive inserts a new open session unless one already exists.
// When another session is open the conflicting row is returned and nothing
// is written.
func (r *SessionRepository) StartExclusive(ctx context.Context, session *model.TimeSession) (*model.TimeSession, error) {
	var conflict *model.TimeSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open model.TimeSession
		err := tx.Where("stopped_at IS NULL").First(&open).Error
		switch {
		case err == nil:
			conflict = &open
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(session).Error
		default:
			return err
		}
	})
	if err != nil {
		// A writer that slipped in between the check and the insert trips
		// the partial unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			open, ferr := r.GetOpen(ctx)
			if ferr != nil {
				return nil, fmt.Errorf("start session: %w", err)
			}
			return open, nil
		}
		return nil, fmt.Errorf("start session: %w", err)
	}
	return conflict, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uint) (*model.TimeSession, error) {
	var session model.TimeSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOpen returns the single session whose stopped_at is unset, or
// gorm.ErrRecordNotFound when nothing is being tracked.
func (r *SessionRepository) GetOpen(ctx context.Context) (*model.TimeSession, error) {
	var session model.TimeSession
	if err := r.db.WithContext(ctx).Where("stopped_at IS NULL").First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOpenForTask returns the task's open session, or gorm.ErrRecordNotFound
// when the task is not being tracked.
func (r *SessionRepository) GetOpenForTask(ctx context.Context, taskID uint) (*model.TimeSession, error) {
	var session model.TimeSession
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND stopped_at IS NULL", taskID).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetPaused(ctx context.Context) ([]model.TimeSession, error) {
	var sessions []model.TimeSession
	if err := r.db.WithContext(ctx).
		Where("stopped_at IS NULL AND paused_at IS NOT NULL AND resumed_at IS NULL").
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateOpen applies fields to the session only while it is still open.
// The reported bool is false when the row was stopped or deleted in the
// meantime, so callers can re-read and report the real state.
func (r *SessionRepository) UpdateOpen(ctx context.Context, id uint, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.TimeSession{}).
		Where("id = ? AND stopped_at IS NULL", id).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("update session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.TimeSession, error) {
	q := r.db.WithContext(ctx).Model(&model.TimeSession{})
	if len(filter.TaskIDs) > 0 {
		q = q.Where("task_id IN ?", filter.TaskIDs)
	}
	if filter.From != nil {
		q = q.Where("started_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("started_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var sessions []model.TimeSession
	if err := q.Order("started_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
