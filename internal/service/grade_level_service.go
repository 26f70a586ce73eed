package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type gradeLevelRepository interface {
	List(ctx context.Context, filter models.GradeLevelFilter) ([]models.GradeLevel, int, error)
	FindByID(ctx context.Context, id string) (*models.GradeLevel, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.GradeLevel) error
	Update(ctx context.Context, item *models.GradeLevel) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// GradeLevelRequest is the payload for creating or updating a grade level.
type GradeLevelRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

var gradeLevelConstraints = map[string]error{
	"grade_levels_name_key": conflict("name", "grade level name already used"),
}

// GradeLevelService manages grade levels.
type GradeLevelService struct {
	writer
	repo gradeLevelRepository
}

// NewGradeLevelService constructs a GradeLevelService.
func NewGradeLevelService(repo gradeLevelRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *GradeLevelService {
	return &GradeLevelService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns grade levels plus pagination data.
func (s *GradeLevelService) List(ctx context.Context, filter models.GradeLevelFilter) ([]models.GradeLevel, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list grade levels")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns a grade level by id.
func (s *GradeLevelService) Get(ctx context.Context, id string) (*models.GradeLevel, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "grade level")
	}
	return item, nil
}

// Create registers a grade level.
func (s *GradeLevelService) Create(ctx context.Context, req GradeLevelRequest) (*models.GradeLevel, error) {
	if err := s.validate(req, "grade level"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err := ensureUnique(exists, err, "name", "grade level name already used"); err != nil {
		return nil, err
	}
	item := &models.GradeLevel{Name: name, Description: normalizeOptional(req.Description)}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, writeError(err, "failed to create grade level", gradeLevelConstraints)
	}
	s.changed(ctx)
	return item, nil
}

// Update modifies a grade level.
func (s *GradeLevelService) Update(ctx context.Context, id string, req GradeLevelRequest) (*models.GradeLevel, error) {
	if err := s.validate(req, "grade level"); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "grade level")
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, id)
	if err := ensureUnique(exists, err, "name", "grade level name already used"); err != nil {
		return nil, err
	}
	item.Name = name
	item.Description = normalizeOptional(req.Description)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, writeError(err, "failed to update grade level", gradeLevelConstraints)
	}
	s.changed(ctx)
	return item, nil
}

// Delete removes a grade level and the courses it owns.
func (s *GradeLevelService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "grade level")
	}
	s.deleted(ctx, "grade_level", id, rows)
	return rows, nil
}
