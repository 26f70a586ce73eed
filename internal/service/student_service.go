package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByLegalID(ctx context.Context, legalID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// StudentRequest represents the payload for creating or updating students.
type StudentRequest struct {
	FirstNames string  `json:"first_names" validate:"required,max=100"`
	LastNames  string  `json:"last_names" validate:"required,max=100"`
	LegalID    string  `json:"legal_id" validate:"required,max=20"`
	Email      *string `json:"email" validate:"omitempty,email,max=254"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	BirthDate  string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	Active     *bool   `json:"active"`
}

var studentConstraints = map[string]error{
	"students_legal_id_key": conflict("legal_id", "legal id already registered"),
}

// StudentService handles business logic for students.
type StudentService struct {
	writer
	repo studentRepository
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *StudentService {
	return &StudentService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns students plus pagination data.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, paginate(filter.ListOptions, total), nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "student")
	}
	return student, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	student := &models.Student{Active: true}
	if err := s.apply(student, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByLegalID(ctx, student.LegalID, "")
	if err := ensureUnique(exists, err, "legal_id", "legal id already registered"); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, "failed to create student", studentConstraints)
	}
	s.changed(ctx)
	return student, nil
}

// Update modifies a student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "student")
	}
	if err := s.apply(student, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByLegalID(ctx, student.LegalID, id)
	if err := ensureUnique(exists, err, "legal_id", "legal id already registered"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, writeError(err, "failed to update student", studentConstraints)
	}
	s.changed(ctx)
	return student, nil
}

// Delete removes a student with everything recorded for them.
func (s *StudentService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "student")
	}
	s.deleted(ctx, "student", id, rows)
	return rows, nil
}

func (s *StudentService) apply(student *models.Student, req StudentRequest) error {
	if err := s.validate(req, "student"); err != nil {
		return err
	}
	birth, err := parseDate(req.BirthDate, "birth_date", time.Time{})
	if err != nil {
		return err
	}
	student.FirstNames = strings.TrimSpace(req.FirstNames)
	student.LastNames = strings.TrimSpace(req.LastNames)
	student.LegalID = strings.TrimSpace(req.LegalID)
	student.Email = normalizeOptional(req.Email)
	student.Phone = normalizeOptional(req.Phone)
	student.BirthDate = birth
	student.Address = normalizeOptional(req.Address)
	if req.Active != nil {
		student.Active = *req.Active
	}
	return nil
}
