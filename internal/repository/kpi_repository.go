package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
)

// KPIRepository loads the facts indicators are computed from. Rows come back
// in creation order so rankings break ties deterministically.
type KPIRepository struct {
	db *sqlx.DB
}

// NewKPIRepository constructs a KPIRepository.
func NewKPIRepository(db *sqlx.DB) *KPIRepository {
	return &KPIRepository{db: db}
}

// ScoreFacts returns every score with its course and teacher.
func (r *KPIRepository) ScoreFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.ScoreFact, error) {
	var cond conditions
	if filter.CourseID != "" {
		cond.add("a.course_id = $%[1]d", filter.CourseID)
	}
	if filter.Since != nil {
		cond.add("sc.recorded_at >= $%[1]d", *filter.Since)
	}
	query := `SELECT sc.student_id, a.course_id, c.teacher_id, sc.assessment_id, sc.value, sc.recorded_at
		FROM scores sc
		JOIN assessments a ON a.id = sc.assessment_id
		JOIN courses c ON c.id = a.course_id
		WHERE 1=1` + cond.clause() + ` ORDER BY sc.recorded_at, sc.id`
	facts := make([]kpi.ScoreFact, 0)
	if err := r.db.SelectContext(ctx, &facts, query, cond.args...); err != nil {
		return nil, fmt.Errorf("load score facts: %w", err)
	}
	return facts, nil
}

// AttendanceFacts returns attendance records.
func (r *KPIRepository) AttendanceFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.AttendanceFact, error) {
	var cond conditions
	if filter.CourseID != "" {
		cond.add("course_id = $%[1]d", filter.CourseID)
	}
	if filter.Since != nil {
		cond.add("date >= $%[1]d", *filter.Since)
	}
	query := "SELECT student_id, course_id, date, status FROM attendance_records WHERE 1=1" + cond.clause() + " ORDER BY date, id"
	facts := make([]kpi.AttendanceFact, 0)
	if err := r.db.SelectContext(ctx, &facts, query, cond.args...); err != nil {
		return nil, fmt.Errorf("load attendance facts: %w", err)
	}
	return facts, nil
}

// ActiveStudents lists active students in creation order.
func (r *KPIRepository) ActiveStudents(ctx context.Context) ([]kpi.StudentRef, error) {
	const query = `SELECT id, TRIM(first_names || ' ' || last_names) AS name, legal_id
		FROM students WHERE active ORDER BY created_at, id`
	students := make([]kpi.StudentRef, 0)
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("load active students: %w", err)
	}
	return students, nil
}

// ActiveTeachers lists active teachers with their distinct enrolled students.
func (r *KPIRepository) ActiveTeachers(ctx context.Context) ([]kpi.TeacherRef, error) {
	const query = `SELECT t.id, TRIM(t.first_names || ' ' || t.last_names) AS name,
		(SELECT COUNT(DISTINCT e.student_id) FROM enrollments e JOIN courses c ON c.id = e.course_id
			WHERE c.teacher_id = t.id AND e.active) AS student_count
		FROM teachers t WHERE t.active ORDER BY t.created_at, t.id`
	teachers := make([]kpi.TeacherRef, 0)
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("load active teachers: %w", err)
	}
	return teachers, nil
}

const courseRefSelect = `SELECT c.id, g.name AS grade_level, s.name AS subject, c.section,
	TRIM(t.first_names || ' ' || t.last_names) AS teacher_name,
	(SELECT COUNT(*) FROM assessments a WHERE a.course_id = c.id) AS assessment_count,
	(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.active) AS enrollment_count
	FROM courses c
	JOIN grade_levels g ON g.id = c.grade_level_id
	JOIN subjects s ON s.id = c.subject_id
	JOIN teachers t ON t.id = c.teacher_id`

// Courses lists every course with assessment and active enrollment counts.
func (r *KPIRepository) Courses(ctx context.Context) ([]kpi.CourseRef, error) {
	courses := make([]kpi.CourseRef, 0)
	if err := r.db.SelectContext(ctx, &courses, courseRefSelect+" ORDER BY g.name, s.code, c.section"); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	return courses, nil
}

// Course loads a single course reference.
func (r *KPIRepository) Course(ctx context.Context, id string) (*kpi.CourseRef, error) {
	var course kpi.CourseRef
	if err := r.db.GetContext(ctx, &course, courseRefSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Counts returns the entity totals of the general summary.
func (r *KPIRepository) Counts(ctx context.Context) (kpi.Counts, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM students WHERE active) AS active_students,
		(SELECT COUNT(*) FROM teachers WHERE active) AS active_teachers,
		(SELECT COUNT(*) FROM courses) AS courses,
		(SELECT COUNT(*) FROM assessments) AS assessments`
	var counts kpi.Counts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return kpi.Counts{}, fmt.Errorf("count entities: %w", err)
	}
	return counts, nil
}

// UpcomingAssessments lists assessments dated within [from, to], soonest first.
func (r *KPIRepository) UpcomingAssessments(ctx context.Context, from, to time.Time, limit int) ([]models.AssessmentDetail, error) {
	query := assessmentDetailSelect + assessmentJoins + " WHERE a.date BETWEEN $1 AND $2 ORDER BY a.date ASC, a.created_at ASC LIMIT $3"
	items := make([]models.AssessmentDetail, 0)
	if err := r.db.SelectContext(ctx, &items, query, from, to, limit); err != nil {
		return nil, fmt.Errorf("load upcoming assessments: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	return items, nil
}

// RecentScores lists the latest recorded scores.
func (r *KPIRepository) RecentScores(ctx context.Context, limit int) ([]models.ScoreDetail, error) {
	query := scoreDetailSelect + scoreJoins + " ORDER BY sc.recorded_at DESC, sc.id ASC LIMIT $1"
	items := make([]models.ScoreDetail, 0)
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("load recent scores: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	return items, nil
}
