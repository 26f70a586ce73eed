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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindByPair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Reactivate(ctx context.Context, id string, enrolledOn time.Time) (bool, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

// EnrollRequest registers a student in a course.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	EnrolledOn string `json:"enrolled_on" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateEnrollmentRequest changes the date or status of an enrollment.
type UpdateEnrollmentRequest struct {
	EnrolledOn string `json:"enrolled_on" validate:"omitempty,datetime=2006-01-02"`
	Active     *bool  `json:"active"`
}

var enrollmentConstraints = map[string]error{
	"enrollments_student_course_key": appErrors.ErrDuplicateEnrollment,
}

// EnrollmentService coordinates enrollment operations.
type EnrollmentService struct {
	writer
	repo     enrollmentRepository
	students studentFinder
	courses  courseFinder
	now      func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentFinder, courses courseFinder, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		writer:   newWriter(validate, cache, logger),
		repo:     repo,
		students: students,
		courses:  courses,
		now:      time.Now,
	}
}

// List returns enrollment details plus pagination data.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list enrollments")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns an enrollment detail by id.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "enrollment")
	}
	return item, nil
}

// Enroll registers a student in a course. An inactive enrollment for the
// same pair is reactivated instead of inserting a second row.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validate(req, "enrollment"); err != nil {
		return nil, err
	}
	enrolledOn, err := parseDate(req.EnrolledOn, "enrolled_on", today(s.now()))
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, referenceError(err, "student", "student_id")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return nil, referenceError(err, "course", "course_id")
	}

	existing, err := s.repo.FindByPair(ctx, req.StudentID, req.CourseID)
	switch {
	case err == nil && existing.Active:
		return nil, appErrors.ErrDuplicateEnrollment
	case err == nil:
		reactivated, err := s.repo.Reactivate(ctx, existing.ID, enrolledOn)
		if err != nil {
			return nil, internalError(err, "failed to reactivate enrollment")
		}
		if !reactivated {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		s.logger.Info("enrollment reactivated", zap.String("enrollment_id", existing.ID))
		s.changed(ctx)
		return s.Get(ctx, existing.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, internalError(err, "failed to check enrollment")
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		EnrolledOn: enrolledOn,
		Active:     true,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, writeError(err, "failed to create enrollment", enrollmentConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, enrollment.ID)
}

// Update changes the date or active flag of an enrollment.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validate(req, "enrollment"); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "enrollment")
	}
	enrollment := item.Enrollment
	if enrollment.EnrolledOn, err = parseDate(req.EnrolledOn, "enrolled_on", enrollment.EnrolledOn); err != nil {
		return nil, err
	}
	if req.Active != nil {
		enrollment.Active = *req.Active
	}
	if err := s.repo.Update(ctx, &enrollment); err != nil {
		return nil, internalError(err, "failed to update enrollment")
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "enrollment")
	}
	s.deleted(ctx, "enrollment", id, rows)
	return rows, nil
}
