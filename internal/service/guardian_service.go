package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type guardianRepository interface {
	List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, int, error)
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
	ExistsByLegalID(ctx context.Context, legalID, excludeID string) (bool, error)
	Create(ctx context.Context, guardian *models.Guardian) error
	Update(ctx context.Context, guardian *models.Guardian) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// GuardianRequest represents the payload for creating or updating guardians.
type GuardianRequest struct {
	FirstNames   string  `json:"first_names" validate:"required,max=100"`
	LastNames    string  `json:"last_names" validate:"required,max=100"`
	LegalID      string  `json:"legal_id" validate:"required,max=20"`
	Email        *string `json:"email" validate:"omitempty,email,max=254"`
	Phone        string  `json:"phone" validate:"required,max=20"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	Relationship string  `json:"relationship" validate:"required,oneof=father mother legal_guardian grandparent sibling uncle_aunt other"`
}

var guardianConstraints = map[string]error{
	"guardians_legal_id_key": conflict("legal_id", "legal id already registered"),
}

// GuardianService manages guardians.
type GuardianService struct {
	writer
	repo guardianRepository
}

// NewGuardianService constructs a GuardianService.
func NewGuardianService(repo guardianRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *GuardianService {
	return &GuardianService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns guardians plus pagination data.
func (s *GuardianService) List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, *models.Pagination, error) {
	guardians, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list guardians")
	}
	for i := range guardians {
		guardians[i].RelationshipLabel = guardians[i].Relationship.Label()
	}
	return guardians, paginate(filter.ListOptions, total), nil
}

// Get returns a guardian by id.
func (s *GuardianService) Get(ctx context.Context, id string) (*models.Guardian, error) {
	guardian, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "guardian")
	}
	guardian.RelationshipLabel = guardian.Relationship.Label()
	return guardian, nil
}

// Create registers a guardian.
func (s *GuardianService) Create(ctx context.Context, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validate(req, "guardian"); err != nil {
		return nil, err
	}
	guardian := &models.Guardian{}
	applyGuardian(guardian, req)
	exists, err := s.repo.ExistsByLegalID(ctx, guardian.LegalID, "")
	if err := ensureUnique(exists, err, "legal_id", "legal id already registered"); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, guardian); err != nil {
		return nil, writeError(err, "failed to create guardian", guardianConstraints)
	}
	s.changed(ctx)
	return guardian, nil
}

// Update modifies a guardian.
func (s *GuardianService) Update(ctx context.Context, id string, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validate(req, "guardian"); err != nil {
		return nil, err
	}
	guardian, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "guardian")
	}
	applyGuardian(guardian, req)
	exists, err := s.repo.ExistsByLegalID(ctx, guardian.LegalID, id)
	if err := ensureUnique(exists, err, "legal_id", "legal id already registered"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, guardian); err != nil {
		return nil, writeError(err, "failed to update guardian", guardianConstraints)
	}
	s.changed(ctx)
	return guardian, nil
}

// Delete removes a guardian and their links.
func (s *GuardianService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "guardian")
	}
	s.deleted(ctx, "guardian", id, rows)
	return rows, nil
}

func applyGuardian(guardian *models.Guardian, req GuardianRequest) {
	guardian.FirstNames = strings.TrimSpace(req.FirstNames)
	guardian.LastNames = strings.TrimSpace(req.LastNames)
	guardian.LegalID = strings.TrimSpace(req.LegalID)
	guardian.Email = normalizeOptional(req.Email)
	guardian.Phone = strings.TrimSpace(req.Phone)
	guardian.Address = normalizeOptional(req.Address)
	guardian.Relationship = models.Relationship(req.Relationship)
	guardian.RelationshipLabel = guardian.Relationship.Label()
}
