package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// SubjectRequest is the payload for creating or updating a subject.
type SubjectRequest struct {
	Code        string  `json:"code" validate:"required,max=20"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

var subjectConstraints = map[string]error{
	"subjects_code_key": conflict("code", "subject code already used"),
	"subjects_name_key": conflict("name", "subject name already used"),
}

// SubjectService manages subjects.
type SubjectService struct {
	writer
	repo subjectRepository
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *SubjectService {
	return &SubjectService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns subjects plus pagination data.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list subjects")
	}
	return subjects, paginate(filter.ListOptions, total), nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "subject")
	}
	return subject, nil
}

// Create registers a subject. Codes are stored upper case.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req, "subject"); err != nil {
		return nil, err
	}
	subject := &models.Subject{}
	s.apply(subject, req)
	if err := s.ensureUniqueFields(ctx, subject, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, writeError(err, "failed to create subject", subjectConstraints)
	}
	s.changed(ctx)
	return subject, nil
}

// Update modifies a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req, "subject"); err != nil {
		return nil, err
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "subject")
	}
	s.apply(subject, req)
	if err := s.ensureUniqueFields(ctx, subject, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, writeError(err, "failed to update subject", subjectConstraints)
	}
	s.changed(ctx)
	return subject, nil
}

// Delete removes a subject and the courses teaching it.
func (s *SubjectService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "subject")
	}
	s.deleted(ctx, "subject", id, rows)
	return rows, nil
}

func (s *SubjectService) apply(subject *models.Subject, req SubjectRequest) {
	subject.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	subject.Name = strings.TrimSpace(req.Name)
	subject.Description = normalizeOptional(req.Description)
}

func (s *SubjectService) ensureUniqueFields(ctx context.Context, subject *models.Subject, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, subject.Code, excludeID)
	if err := ensureUnique(exists, err, "code", "subject code already used"); err != nil {
		return err
	}
	exists, err = s.repo.ExistsByName(ctx, subject.Name, excludeID)
	return ensureUnique(exists, err, "name", "subject name already used")
}
