package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const attendanceDetailSelect = `SELECT r.id, r.student_id, r.course_id, r.date, r.status, r.notes, r.created_at,
	st.first_names AS student_first_names, st.last_names AS student_last_names,
	g.name AS grade_level_name, s.name AS subject_name, c.section`

const attendanceJoins = ` FROM attendance_records r
	JOIN students st ON st.id = r.student_id
	JOIN courses c ON c.id = r.course_id
	JOIN grade_levels g ON g.id = c.grade_level_id
	JOIN subjects s ON s.id = c.subject_id`

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance details ordered by date, course and student.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	var cond conditions
	if filter.StudentID != "" {
		cond.add("r.student_id = $%[1]d", filter.StudentID)
	}
	if filter.CourseID != "" {
		cond.add("r.course_id = $%[1]d", filter.CourseID)
	}
	if filter.Status != "" {
		cond.add("r.status = $%[1]d", filter.Status)
	}
	if filter.Date != nil {
		cond.add("r.date = $%[1]d", *filter.Date)
	}
	cond.search(filter.Search, "st.first_names", "st.last_names", "s.name")
	base := attendanceJoins + " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"date": "r.date", "status": "r.status", "student": "st.last_names"}
	order := ordering(filter.ListOptions, allowed, "r.date DESC, g.name ASC, s.code ASC, c.section ASC, st.last_names ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", attendanceDetailSelect, base, order, limit, offset)
	var items []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return items, total, nil
}

// FindByID returns an attendance detail.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceDetail, error) {
	var item models.AttendanceDetail
	if err := r.db.GetContext(ctx, &item, attendanceDetailSelect+attendanceJoins+" WHERE r.id = $1", id); err != nil {
		return nil, err
	}
	item.Decorate()
	return &item, nil
}

// ExistsByKey checks the (student, course, date) uniqueness.
func (r *AttendanceRepository) ExistsByKey(ctx context.Context, studentID, courseID string, date time.Time, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "attendance_records", "student_id = $1 AND course_id = $2 AND date = $3", []interface{}{studentID, courseID, date}, excludeID)
}

// Create inserts an attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO attendance_records (id, student_id, course_id, date, status, notes, created_at)
		VALUES (:id, :student_id, :course_id, :date, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update modifies an attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `UPDATE attendance_records SET student_id = :student_id, course_id = :course_id, date = :date, status = :status,
		notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "attendance_records", id)
}
