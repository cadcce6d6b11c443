package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tempo/internal/model"
)

// TaskFilter narrows List results. Nil fields are ignored.
type TaskFilter struct {
	ProjectID *uint
	States    []model.TaskState
	From      *time.Time // inclusive lower bound on updated_at
	To        *time.Time // exclusive upper bound on updated_at
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task, allocating the next per-project number when the
// caller left it unset. Allocation and insert share a transaction so two
// writers cannot claim the same number.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.Number == 0 {
			var maxNumber int64
			if err := tx.Model(&model.Task{}).
				Where("project_id = ?", task.ProjectID).
				Select("COALESCE(MAX(number), 0)").
				Scan(&maxNumber).Error; err != nil {
				return err
			}
			task.Number = int(maxNumber) + 1
		}
		return tx.Create(task).Error
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) GetByNumber(ctx context.Context, projectID uint, number int) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND number = ?", projectID, number).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if len(filter.States) > 0 {
		q = q.Where("state IN ?", filter.States)
	}
	if filter.From != nil {
		q = q.Where("updated_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("updated_at < ?", *filter.To)
	}

	var tasks []model.Task
	if err := q.Order("project_id ASC, number ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// Delete removes a task together with its sessions.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.TimeSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
