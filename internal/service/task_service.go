package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Project           string
	Title             string
	Description       string
	SizeEstimate      *float64
	TimeEstimateHours *float64
	Tags              []string
}

// TaskUpdate carries changed fields; nil fields stay untouched.
type TaskUpdate struct {
	Title             *string
	Description       *string
	State             *model.TaskState
	SizeEstimate      *float64
	TimeEstimateHours *float64
	Tags              []string
}

// TaskQuery filters task listings.
type TaskQuery struct {
	Project string
	States  []model.TaskState
	Tag     string
	From    *time.Time
	To      *time.Time
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, projectRepo: projectRepo}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, clierr.New(clierr.InvalidInput, "title is required")
	}
	if input.Project == "" {
		return nil, clierr.New(clierr.InvalidInput, "project is required")
	}
	if err := validateEstimates(input.SizeEstimate, input.TimeEstimateHours); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetOrCreate(ctx, input.Project)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		ProjectID:         project.ID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		State:             model.TaskPending,
		SizeEstimate:      input.SizeEstimate,
		TimeEstimateHours: input.TimeEstimateHours,
		Tags:              model.NormalizeTags(input.Tags),
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clierr.Newf(clierr.TaskNotFound, "task %d not found", taskID)
		}
		return nil, err
	}
	return task, nil
}

// GetTaskByReference resolves "42" as a task id and "project/7" as a
// per-project task number.
func (s *TaskService) GetTaskByReference(ctx context.Context, ref string) (*model.Task, error) {
	if name, numberStr, ok := strings.Cut(ref, "/"); ok {
		number, err := strconv.Atoi(numberStr)
		if err != nil || number <= 0 {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid task reference %q", ref)
		}
		project, err := s.projectRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, clierr.Newf(clierr.ProjectNotFound, "project %q not found", name)
			}
			return nil, err
		}
		task, err := s.taskRepo.GetByNumber(ctx, project.ID, number)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, clierr.Newf(clierr.TaskNotFound, "task %s not found", ref)
			}
			return nil, err
		}
		return task, nil
	}

	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return nil, clierr.Newf(clierr.InvalidInput, "invalid task reference %q", ref)
	}
	return s.GetTask(ctx, uint(id))
}

func (s *TaskService) ListTasks(ctx context.Context, query TaskQuery) ([]model.Task, error) {
	filter := repository.TaskFilter{States: query.States, From: query.From, To: query.To}
	if query.Project != "" {
		project, err := s.projectRepo.GetByName(ctx, query.Project)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, clierr.Newf(clierr.ProjectNotFound, "project %q not found", query.Project)
			}
			return nil, err
		}
		filter.ProjectID = &project.ID
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if query.Tag == "" {
		return tasks, nil
	}
	tagged := tasks[:0]
	for _, task := range tasks {
		if task.HasTag(query.Tag) {
			tagged = append(tagged, task)
		}
	}
	return tagged, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID uint, update TaskUpdate) (*model.Task, error) {
	if err := validateEstimates(update.SizeEstimate, update.TimeEstimateHours); err != nil {
		return nil, err
	}
	if update.State != nil && !update.State.Valid() {
		return nil, clierr.Newf(clierr.InvalidInput, "invalid state %q", *update.State)
	}

	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, clierr.New(clierr.InvalidInput, "title cannot be empty")
		}
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.State != nil {
		task.State = *update.State
	}
	if update.SizeEstimate != nil {
		task.SizeEstimate = update.SizeEstimate
	}
	if update.TimeEstimateHours != nil {
		task.TimeEstimateHours = update.TimeEstimateHours
	}
	if update.Tags != nil {
		task.Tags = model.NormalizeTags(update.Tags)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marks a task as completed.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task.State = model.TaskCompleted
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task together with its tracked sessions.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, taskID)
}

func validateEstimates(size, hours *float64) error {
	if size != nil && *size <= 0 {
		return clierr.New(clierr.InvalidInput, "size estimate must be positive")
	}
	if hours != nil && *hours <= 0 {
		return clierr.New(clierr.InvalidInput, "time estimate must be positive")
	}
	return nil
}
