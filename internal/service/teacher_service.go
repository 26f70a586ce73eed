package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// TeacherRequest represents the payload for creating or updating teachers.
type TeacherRequest struct {
	FirstNames string  `json:"first_names" validate:"required,max=100"`
	LastNames  string  `json:"last_names" validate:"required,max=100"`
	Email      string  `json:"email" validate:"required,email,max=254"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Specialty  *string `json:"specialty" validate:"omitempty,max=100"`
	Active     *bool   `json:"active"`
}

var teacherConstraints = map[string]error{
	"teachers_email_key": conflict("email", "email already used"),
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	writer
	repo teacherRepository
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *TeacherService {
	return &TeacherService{writer: newWriter(validate, cache, logger), repo: repo}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list teachers")
	}
	return teachers, paginate(filter.ListOptions, total), nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validate(req, "teacher"); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err := ensureUnique(exists, err, "email", "email already used"); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{Active: true}
	applyTeacher(teacher, req, email)
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, writeError(err, "failed to create teacher", teacherConstraints)
	}
	s.changed(ctx)
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validate(req, "teacher"); err != nil {
		return nil, err
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "teacher")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email, id)
	if err := ensureUnique(exists, err, "email", "email already used"); err != nil {
		return nil, err
	}

	applyTeacher(teacher, req, email)
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, writeError(err, "failed to update teacher", teacherConstraints)
	}
	s.changed(ctx)
	return teacher, nil
}

// Delete removes a teacher together with their courses.
func (s *TeacherService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "teacher")
	}
	s.deleted(ctx, "teacher", id, rows)
	return rows, nil
}

func applyTeacher(teacher *models.Teacher, req TeacherRequest, email string) {
	teacher.FirstNames = strings.TrimSpace(req.FirstNames)
	teacher.LastNames = strings.TrimSpace(req.LastNames)
	teacher.Email = email
	teacher.Phone = normalizeOptional(req.Phone)
	teacher.Specialty = normalizeOptional(req.Specialty)
	if req.Active != nil {
		teacher.Active = *req.Active
	}
}
