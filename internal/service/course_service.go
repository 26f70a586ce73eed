package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ExistsByKey(ctx context.Context, course *models.Course, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

type gradeLevelFinder interface {
	FindByID(ctx context.Context, id string) (*models.GradeLevel, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type periodFinder interface {
	FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	GradeLevelID string `json:"grade_level_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	TeacherID    string `json:"teacher_id" validate:"required"`
	PeriodID     string `json:"period_id" validate:"required"`
	Section      string `json:"section" validate:"omitempty,max=10"`
}

var courseConstraints = map[string]error{
	"courses_grade_subject_period_section_key": conflict("section", "course already offered for this grade, subject, period and section"),
}

// CourseServiceParams groups constructor dependencies.
type CourseServiceParams struct {
	Courses     courseRepository
	GradeLevels gradeLevelFinder
	Subjects    subjectFinder
	Teachers    teacherFinder
	Periods     periodFinder
	Validator   *validator.Validate
	Cache       cacheInvalidator
	Logger      *zap.Logger
}

// CourseService manages courses.
type CourseService struct {
	writer
	repo        courseRepository
	gradeLevels gradeLevelFinder
	subjects    subjectFinder
	teachers    teacherFinder
	periods     periodFinder
}

// NewCourseService constructs a CourseService.
func NewCourseService(params CourseServiceParams) *CourseService {
	return &CourseService{
		writer:      newWriter(params.Validator, params.Cache, params.Logger),
		repo:        params.Courses,
		gradeLevels: params.GradeLevels,
		subjects:    params.Subjects,
		teachers:    params.Teachers,
		periods:     params.Periods,
	}
}

// List returns course details plus pagination data.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list courses")
	}
	return courses, paginate(filter.ListOptions, total), nil
}

// Get returns a course detail by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "course")
	}
	return course, nil
}

// Create registers a course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	course := &models.Course{}
	if err := s.apply(ctx, course, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, writeError(err, "failed to create course", courseConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, course.ID)
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.CourseDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "course")
	}
	course := existing.Course
	if err := s.apply(ctx, &course, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, writeError(err, "failed to update course", courseConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes a course with its enrollments, assessments, scores and
// attendance.
func (s *CourseService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "course")
	}
	s.deleted(ctx, "course", id, rows)
	return rows, nil
}

func (s *CourseService) apply(ctx context.Context, course *models.Course, req CourseRequest, excludeID string) error {
	if err := s.validate(req, "course"); err != nil {
		return err
	}
	if _, err := s.gradeLevels.FindByID(ctx, req.GradeLevelID); err != nil {
		return referenceError(err, "grade level", "grade_level_id")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		return referenceError(err, "subject", "subject_id")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return referenceError(err, "teacher", "teacher_id")
	}
	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		return referenceError(err, "academic period", "period_id")
	}

	course.GradeLevelID = req.GradeLevelID
	course.SubjectID = req.SubjectID
	course.TeacherID = req.TeacherID
	course.PeriodID = req.PeriodID
	course.Section = strings.ToUpper(strings.TrimSpace(req.Section))
	if course.Section == "" {
		course.Section = models.DefaultSection
	}

	exists, err := s.repo.ExistsByKey(ctx, course, excludeID)
	return ensureUnique(exists, err, "section", "course already offered for this grade, subject, period and section")
}
