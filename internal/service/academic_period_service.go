package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type academicPeriodRepository interface {
	List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	ExistsByNameAndStart(ctx context.Context, name string, start time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, period *models.AcademicPeriod) error
	Update(ctx context.Context, period *models.AcademicPeriod) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// AcademicPeriodRequest is the payload for creating or updating a period.
type AcademicPeriodRequest struct {
	Name      string `json:"name" validate:"required,max=50"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Active    *bool  `json:"active"`
}

var academicPeriodConstraints = map[string]error{
	"academic_periods_name_start_key": conflict("name", "a period with this name already starts on that date"),
}

// AcademicPeriodService manages academic periods.
type AcademicPeriodService struct {
	writer
	repo academicPeriodRepository
}

// NewAcademicPeriodService constructs an AcademicPeriodService.
func NewAcademicPeriodService(repo academicPeriodRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *AcademicPeriodService {
	return &AcademicPeriodService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns periods plus pagination data.
func (s *AcademicPeriodService) List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list academic periods")
	}
	return periods, paginate(filter.ListOptions, total), nil
}

// Get returns a period by id.
func (s *AcademicPeriodService) Get(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "academic period")
	}
	return period, nil
}

// Create registers a period. New periods are active unless stated otherwise.
func (s *AcademicPeriodService) Create(ctx context.Context, req AcademicPeriodRequest) (*models.AcademicPeriod, error) {
	period := &models.AcademicPeriod{Active: true}
	if err := s.apply(period, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByNameAndStart(ctx, period.Name, period.StartDate, "")
	if err := ensureUnique(exists, err, "name", "a period with this name already starts on that date"); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, writeError(err, "failed to create academic period", academicPeriodConstraints)
	}
	s.changed(ctx)
	return period, nil
}

// Update modifies a period.
func (s *AcademicPeriodService) Update(ctx context.Context, id string, req AcademicPeriodRequest) (*models.AcademicPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "academic period")
	}
	if err := s.apply(period, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByNameAndStart(ctx, period.Name, period.StartDate, id)
	if err := ensureUnique(exists, err, "name", "a period with this name already starts on that date"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, writeError(err, "failed to update academic period", academicPeriodConstraints)
	}
	s.changed(ctx)
	return period, nil
}

// Delete removes a period and the courses offered in it.
func (s *AcademicPeriodService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "academic period")
	}
	s.deleted(ctx, "academic_period", id, rows)
	return rows, nil
}

func (s *AcademicPeriodService) apply(period *models.AcademicPeriod, req AcademicPeriodRequest) error {
	if err := s.validate(req, "academic period"); err != nil {
		return err
	}
	start, err := parseDate(req.StartDate, "start_date", time.Time{})
	if err != nil {
		return err
	}
	end, err := parseDate(req.EndDate, "end_date", time.Time{})
	if err != nil {
		return err
	}
	if end.Before(start) {
		return appErrors.WithField(appErrors.ErrValidation, "end_date", "end_date must not be before start_date")
	}
	period.Name = strings.TrimSpace(req.Name)
	period.StartDate = start
	period.EndDate = end
	if req.Active != nil {
		period.Active = *req.Active
	}
	return nil
}
