package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type assessmentRepository interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, assessment *models.Assessment) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// AssessmentRequest is the payload for creating or updating an assessment.
// A missing weight defaults to 100.
type AssessmentRequest struct {
	CourseID    string   `json:"course_id" validate:"required"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Type        string   `json:"type" validate:"required,oneof=exam assignment project practice participation"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Weight      *float64 `json:"weight"`
}

// AssessmentService manages graded activities.
type AssessmentService struct {
	writer
	repo    assessmentRepository
	courses courseFinder
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(repo assessmentRepository, courses courseFinder, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *AssessmentService {
	return &AssessmentService{writer: newWriter(validate, cache, logger), repo: repo, courses: courses}
}

// List returns assessment details plus pagination data.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list assessments")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns an assessment detail by id.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "assessment")
	}
	return item, nil
}

// Create registers an assessment for a course.
func (s *AssessmentService) Create(ctx context.Context, req AssessmentRequest) (*models.AssessmentDetail, error) {
	assessment := &models.Assessment{}
	if err := s.apply(ctx, assessment, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, internalError(err, "failed to create assessment")
	}
	s.changed(ctx)
	return s.Get(ctx, assessment.ID)
}

// Update modifies an assessment.
func (s *AssessmentService) Update(ctx context.Context, id string, req AssessmentRequest) (*models.AssessmentDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "assessment")
	}
	assessment := existing.Assessment
	if err := s.apply(ctx, &assessment, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &assessment); err != nil {
		return nil, internalError(err, "failed to update assessment")
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes an assessment and its scores.
func (s *AssessmentService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "assessment")
	}
	s.deleted(ctx, "assessment", id, rows)
	return rows, nil
}

func (s *AssessmentService) apply(ctx context.Context, assessment *models.Assessment, req AssessmentRequest) error {
	if err := s.validate(req, "assessment"); err != nil {
		return err
	}
	weight := models.MaxAssessmentWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	if weight < models.MinAssessmentWeight || weight > models.MaxAssessmentWeight {
		return appErrors.WithField(appErrors.ErrOutOfRange, "weight",
			fmt.Sprintf("weight must be between %.2f and %.0f", models.MinAssessmentWeight, models.MaxAssessmentWeight))
	}
	date, err := parseDate(req.Date, "date", assessment.Date)
	if err != nil {
		return err
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return referenceError(err, "course", "course_id")
	}

	assessment.CourseID = req.CourseID
	assessment.Name = strings.TrimSpace(req.Name)
	assessment.Description = normalizeOptional(req.Description)
	assessment.Type = models.AssessmentType(req.Type)
	assessment.TypeLabel = assessment.Type.Label()
	assessment.Date = date
	assessment.Weight = weight
	return nil
}
