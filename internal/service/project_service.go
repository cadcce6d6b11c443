package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/repository"
)

// ProjectService provides helpers around projects.
type ProjectService struct {
	repo *repository.ProjectRepository
}

func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) CreateProject(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, clierr.New(clierr.InvalidInput, "project name is required")
	}
	if strings.Contains(name, "/") {
		return nil, clierr.New(clierr.InvalidInput, "project name cannot contain '/'")
	}

	project := model.Project{Name: name, Description: description}
	if err := s.repo.Create(ctx, &project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, clierr.Newf(clierr.InvalidInput, "project %q already exists", name)
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, name string) (*model.Project, error) {
	project, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, clierr.Newf(clierr.ProjectNotFound, "project %q not found", name)
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.repo.List(ctx)
}
