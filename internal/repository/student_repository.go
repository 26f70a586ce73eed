package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const studentColumns = "id, first_names, last_names, legal_id, email, phone, birth_date, address, active, created_at, updated_at"

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students using filters and pagination.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var cond conditions
	if filter.Active != nil {
		cond.add("s.active = $%[1]d", *filter.Active)
	}
	if filter.CourseID != "" {
		cond.add("EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.course_id = $%[1]d AND e.active)", filter.CourseID)
	}
	cond.search(filter.Search, "s.first_names", "s.last_names", "s.legal_id")
	base := "FROM students s WHERE 1=1" + cond.clause()

	allowed := map[string]string{
		"last_names": "s.last_names",
		"legal_id":   "s.legal_id",
		"birth_date": "s.birth_date",
		"created_at": "s.created_at",
	}
	order := ordering(filter.ListOptions, allowed, "s.last_names ASC, s.first_names ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("SELECT s.id, s.first_names, s.last_names, s.legal_id, s.email, s.phone, s.birth_date, s.address, s.active, s.created_at, s.updated_at %s ORDER BY %s LIMIT %d OFFSET %d", base, order, limit, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByLegalID checks whether another student holds the legal ID.
func (r *StudentRepository) ExistsByLegalID(ctx context.Context, legalID, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "students", "legal_id = $1", []interface{}{legalID}, excludeID)
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, first_names, last_names, legal_id, email, phone, birth_date, address, active, created_at, updated_at)
		VALUES (:id, :first_names, :last_names, :legal_id, :email, :phone, :birth_date, :address, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies student data.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_names = :first_names, last_names = :last_names, legal_id = :legal_id, email = :email,
		phone = :phone, birth_date = :birth_date, address = :address, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student with their enrollments, scores, attendance and
// guardian links.
func (r *StudentRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "students", id)
}
