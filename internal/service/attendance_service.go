package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceDetail, error)
	ExistsByKey(ctx context.Context, studentID, courseID string, date time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// AttendanceRequest marks a student's presence in a course for one day.
type AttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

var attendanceConstraints = map[string]error{
	"attendance_records_student_course_date_key": appErrors.ErrDuplicateAttendance,
}

// AttendanceService records daily attendance per course.
type AttendanceService struct {
	writer
	repo        attendanceRepository
	students    studentFinder
	courses     courseFinder
	enrollments enrollmentChecker
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, students studentFinder, courses courseFinder, enrollments enrollmentChecker, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{
		writer:      newWriter(validate, cache, logger),
		repo:        repo,
		students:    students,
		courses:     courses,
		enrollments: enrollments,
	}
}

// List returns attendance details plus pagination data.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list attendance")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns an attendance detail by id.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.AttendanceDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "attendance record")
	}
	return item, nil
}

// Record stores one day of attendance.
func (s *AttendanceService) Record(ctx context.Context, req AttendanceRequest) (*models.AttendanceDetail, error) {
	record := &models.AttendanceRecord{}
	if err := s.apply(ctx, record, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, writeError(err, "failed to record attendance", attendanceConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, record.ID)
}

// Update modifies an attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req AttendanceRequest) (*models.AttendanceDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "attendance record")
	}
	record := existing.AttendanceRecord
	if err := s.apply(ctx, &record, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &record); err != nil {
		return nil, writeError(err, "failed to update attendance", attendanceConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "attendance record")
	}
	s.deleted(ctx, "attendance", id, rows)
	return rows, nil
}

func (s *AttendanceService) apply(ctx context.Context, record *models.AttendanceRecord, req AttendanceRequest, excludeID string) error {
	if err := s.validate(req, "attendance"); err != nil {
		return err
	}
	date, err := parseDate(req.Date, "date", record.Date)
	if err != nil {
		return err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return referenceError(err, "student", "student_id")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		return referenceError(err, "course", "course_id")
	}
	enrolled, err := s.enrollments.IsActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return internalError(err, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.WithField(appErrors.ErrNotEnrolled, "student_id", "student not enrolled in course")
	}
	exists, err := s.repo.ExistsByKey(ctx, req.StudentID, req.CourseID, date, excludeID)
	if err != nil {
		return internalError(err, "failed to check attendance uniqueness")
	}
	if exists {
		return appErrors.ErrDuplicateAttendance
	}

	record.StudentID = req.StudentID
	record.CourseID = req.CourseID
	record.Date = date
	record.Status = models.AttendanceStatus(req.Status)
	record.StatusLabel = record.Status.Label()
	record.Notes = normalizeOptional(req.Notes)
	return nil
}
