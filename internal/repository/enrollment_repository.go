package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const enrollmentColumns = "id, student_id, course_id, enrolled_on, active, created_at"

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.enrolled_on, e.active, e.created_at,
	st.first_names AS student_first_names, st.last_names AS student_last_names,
	g.name AS grade_level_name, s.name AS subject_name, c.section
	FROM enrollments e
	JOIN students st ON st.id = e.student_id
	JOIN courses c ON c.id = e.course_id
	JOIN grade_levels g ON g.id = c.grade_level_id
	JOIN subjects s ON s.id = c.subject_id`

// EnrollmentRepository manages persistence for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository instance.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollment details, newest enrollment date first.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var cond conditions
	if filter.StudentID != "" {
		cond.add("e.student_id = $%[1]d", filter.StudentID)
	}
	if filter.CourseID != "" {
		cond.add("e.course_id = $%[1]d", filter.CourseID)
	}
	if filter.Active != nil {
		cond.add("e.active = $%[1]d", *filter.Active)
	}
	cond.search(filter.Search, "st.first_names", "st.last_names", "st.legal_id", "s.name")
	where := " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"enrolled_on": "e.enrolled_on", "student": "st.last_names", "created_at": "e.created_at"}
	order := ordering(filter.ListOptions, allowed, "e.enrolled_on DESC, e.id ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", enrollmentDetailSelect, where, order, limit, offset)
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}

	countQuery := `SELECT COUNT(*) FROM enrollments e
	JOIN students st ON st.id = e.student_id
	JOIN courses c ON c.id = e.course_id
	JOIN subjects s ON s.id = c.subject_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return items, total, nil
}

// FindByID returns an enrollment detail.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var item models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &item, enrollmentDetailSelect+" WHERE e.id = $1", id); err != nil {
		return nil, err
	}
	item.Decorate()
	return &item, nil
}

// FindByPair returns the enrollment of a student in a course, active or not.
func (r *EnrollmentRepository) FindByPair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	var item models.Enrollment
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE student_id = $1 AND course_id = $2"
	if err := r.db.GetContext(ctx, &item, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &item, nil
}

// IsActive reports whether the student holds an active enrollment in the course.
func (r *EnrollmentRepository) IsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND active LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create inserts an enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledOn.IsZero() {
		enrollment.EnrolledOn = now.Truncate(24 * time.Hour)
	}
	enrollment.CreatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, course_id, enrolled_on, active, created_at)
		VALUES (:id, :student_id, :course_id, :enrolled_on, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update modifies the date and status of an enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `UPDATE enrollments SET enrolled_on = :enrolled_on, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Reactivate flips an inactive enrollment back to active. It reports false
// when the row was already active, so concurrent reactivations have one winner.
func (r *EnrollmentRepository) Reactivate(ctx context.Context, id string, enrolledOn time.Time) (bool, error) {
	const query = `UPDATE enrollments SET active = TRUE, enrolled_on = $2 WHERE id = $1 AND NOT active`
	res, err := r.db.ExecContext(ctx, query, id, enrolledOn)
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment: %w", err)
	}
	return affected == 1, nil
}

// Delete removes an enrollment. Scores and attendance stay with the student.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "enrollments", id)
}
