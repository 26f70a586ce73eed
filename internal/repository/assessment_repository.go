package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const assessmentDetailSelect = `SELECT a.id, a.course_id, a.name, a.description, a.type, a.date, a.weight, a.created_at, a.updated_at,
	g.name AS grade_level_name, s.name AS subject_name, c.section`

const assessmentJoins = ` FROM assessments a
	JOIN courses c ON c.id = a.course_id
	JOIN grade_levels g ON g.id = c.grade_level_id
	JOIN subjects s ON s.id = c.subject_id`

// AssessmentRepository manages persistence for assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// List returns assessment details, latest date first.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, int, error) {
	var cond conditions
	if filter.CourseID != "" {
		cond.add("a.course_id = $%[1]d", filter.CourseID)
	}
	if filter.Type != "" {
		cond.add("a.type = $%[1]d", filter.Type)
	}
	if filter.From != nil {
		cond.add("a.date >= $%[1]d", *filter.From)
	}
	if filter.To != nil {
		cond.add("a.date <= $%[1]d", *filter.To)
	}
	cond.search(filter.Search, "a.name", "s.name")
	base := assessmentJoins + " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"date": "a.date", "name": "a.name", "weight": "a.weight", "created_at": "a.created_at"}
	order := ordering(filter.ListOptions, allowed, "a.date DESC, a.created_at DESC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", assessmentDetailSelect, base, order, limit, offset)
	var items []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}
	return items, total, nil
}

// FindByID returns an assessment detail.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	var item models.AssessmentDetail
	if err := r.db.GetContext(ctx, &item, assessmentDetailSelect+assessmentJoins+" WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	item.Decorate()
	return &item, nil
}

// Create inserts an assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	const query = `INSERT INTO assessments (id, course_id, name, description, type, date, weight, created_at, updated_at)
		VALUES (:id, :course_id, :name, :description, :type, :date, :weight, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// Update modifies an assessment.
func (r *AssessmentRepository) Update(ctx context.Context, assessment *models.Assessment) error {
	assessment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessments SET course_id = :course_id, name = :name, description = :description, type = :type,
		date = :date, weight = :weight, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

// Delete removes an assessment and its scores.
func (r *AssessmentRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "assessments", id)
}
