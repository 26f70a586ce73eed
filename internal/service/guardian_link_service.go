package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type guardianLinkRepository interface {
	List(ctx context.Context, filter models.GuardianLinkFilter) ([]models.GuardianLinkDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.GuardianLinkDetail, error)
	FindByPair(ctx context.Context, studentID, guardianID string) (*models.GuardianLink, error)
	Create(ctx context.Context, link *models.GuardianLink) error
	Update(ctx context.Context, link *models.GuardianLink) error
	Reactivate(ctx context.Context, link *models.GuardianLink) (bool, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

type guardianFinder interface {
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
}

// LinkGuardianRequest associates a guardian with a student.
type LinkGuardianRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	GuardianID string `json:"guardian_id" validate:"required"`
	IsPrimary  bool   `json:"is_primary"`
	AssignedOn string `json:"assigned_on" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateGuardianLinkRequest changes the flags of a link.
type UpdateGuardianLinkRequest struct {
	IsPrimary  *bool  `json:"is_primary"`
	Active     *bool  `json:"active"`
	AssignedOn string `json:"assigned_on" validate:"omitempty,datetime=2006-01-02"`
}

var guardianLinkConstraints = map[string]error{
	"guardian_links_student_guardian_key": appErrors.ErrDuplicateLink,
}

// GuardianLinkService manages student-guardian links.
type GuardianLinkService struct {
	writer
	repo      guardianLinkRepository
	students  studentFinder
	guardians guardianFinder
	now       func() time.Time
}

// NewGuardianLinkService constructs a GuardianLinkService.
func NewGuardianLinkService(repo guardianLinkRepository, students studentFinder, guardians guardianFinder, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *GuardianLinkService {
	return &GuardianLinkService{
		writer:    newWriter(validate, cache, logger),
		repo:      repo,
		students:  students,
		guardians: guardians,
		now:       time.Now,
	}
}

// List returns link details plus pagination data.
func (s *GuardianLinkService) List(ctx context.Context, filter models.GuardianLinkFilter) ([]models.GuardianLinkDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list guardian links")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns a link detail by id.
func (s *GuardianLinkService) Get(ctx context.Context, id string) (*models.GuardianLinkDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "guardian link")
	}
	return item, nil
}

// Link associates a guardian with a student. An inactive link for the same
// pair is reactivated.
func (s *GuardianLinkService) Link(ctx context.Context, req LinkGuardianRequest) (*models.GuardianLinkDetail, error) {
	if err := s.validate(req, "guardian link"); err != nil {
		return nil, err
	}
	assignedOn, err := parseDate(req.AssignedOn, "assigned_on", today(s.now()))
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, referenceError(err, "student", "student_id")
	}
	if _, err := s.guardians.FindByID(ctx, req.GuardianID); err != nil {
		return nil, referenceError(err, "guardian", "guardian_id")
	}

	existing, err := s.repo.FindByPair(ctx, req.StudentID, req.GuardianID)
	switch {
	case err == nil && existing.Active:
		return nil, appErrors.ErrDuplicateLink
	case err == nil:
		existing.IsPrimary = req.IsPrimary
		existing.AssignedOn = assignedOn
		reactivated, err := s.repo.Reactivate(ctx, existing)
		if err != nil {
			return nil, internalError(err, "failed to reactivate guardian link")
		}
		if !reactivated {
			return nil, appErrors.ErrDuplicateLink
		}
		s.changed(ctx)
		return s.Get(ctx, existing.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, internalError(err, "failed to check guardian link")
	}

	link := &models.GuardianLink{
		StudentID:  req.StudentID,
		GuardianID: req.GuardianID,
		IsPrimary:  req.IsPrimary,
		AssignedOn: assignedOn,
		Active:     true,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, writeError(err, "failed to create guardian link", guardianLinkConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, link.ID)
}

// Update changes the flags of a link.
func (s *GuardianLinkService) Update(ctx context.Context, id string, req UpdateGuardianLinkRequest) (*models.GuardianLinkDetail, error) {
	if err := s.validate(req, "guardian link"); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "guardian link")
	}
	link := item.GuardianLink
	if link.AssignedOn, err = parseDate(req.AssignedOn, "assigned_on", link.AssignedOn); err != nil {
		return nil, err
	}
	if req.IsPrimary != nil {
		link.IsPrimary = *req.IsPrimary
	}
	if req.Active != nil {
		link.Active = *req.Active
	}
	if err := s.repo.Update(ctx, &link); err != nil {
		return nil, internalError(err, "failed to update guardian link")
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes a link.
func (s *GuardianLinkService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "guardian link")
	}
	s.deleted(ctx, "guardian_link", id, rows)
	return rows, nil
}
