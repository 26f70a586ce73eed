package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const courseDetailSelect = `SELECT c.id, c.grade_level_id, c.subject_id, c.teacher_id, c.period_id, c.section, c.created_at, c.updated_at,
	g.name AS grade_level_name, s.code AS subject_code, s.name AS subject_name,
	t.first_names AS teacher_first_names, t.last_names AS teacher_last_names, p.name AS period_name`

const courseJoins = ` FROM courses c
	JOIN grade_levels g ON g.id = c.grade_level_id
	JOIN subjects s ON s.id = c.subject_id
	JOIN teachers t ON t.id = c.teacher_id
	JOIN academic_periods p ON p.id = c.period_id`

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns course details ordered by grade, subject code and section.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var cond conditions
	if filter.GradeLevelID != "" {
		cond.add("c.grade_level_id = $%[1]d", filter.GradeLevelID)
	}
	if filter.SubjectID != "" {
		cond.add("c.subject_id = $%[1]d", filter.SubjectID)
	}
	if filter.TeacherID != "" {
		cond.add("c.teacher_id = $%[1]d", filter.TeacherID)
	}
	if filter.PeriodID != "" {
		cond.add("c.period_id = $%[1]d", filter.PeriodID)
	}
	cond.search(filter.Search, "g.name", "s.name", "s.code", "c.section", "t.first_names", "t.last_names")
	base := courseJoins + " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"section": "c.section", "subject": "s.name", "created_at": "c.created_at"}
	order := ordering(filter.ListOptions, allowed, "g.name ASC, s.code ASC, c.section ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", courseDetailSelect, base, order, limit, offset)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	for i := range courses {
		courses[i].Decorate()
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course detail.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, courseDetailSelect+courseJoins+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	course.Decorate()
	return &course, nil
}

// ExistsByKey checks the (grade level, subject, period, section) uniqueness.
func (r *CourseRepository) ExistsByKey(ctx context.Context, course *models.Course, excludeID string) (bool, error) {
	args := []interface{}{course.GradeLevelID, course.SubjectID, course.PeriodID, course.Section}
	return existsWhere(ctx, r.db, "courses", "grade_level_id = $1 AND subject_id = $2 AND period_id = $3 AND section = $4", args, excludeID)
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, grade_level_id, subject_id, teacher_id, period_id, section, created_at, updated_at)
		VALUES (:id, :grade_level_id, :subject_id, :teacher_id, :period_id, :section, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET grade_level_id = :grade_level_id, subject_id = :subject_id, teacher_id = :teacher_id,
		period_id = :period_id, section = :section, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course with its enrollments, assessments, scores and
// attendance.
func (r *CourseRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "courses", id)
}
