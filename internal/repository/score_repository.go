package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const scoreDetailSelect = `SELECT sc.id, sc.assessment_id, sc.student_id, sc.value, sc.recorded_at, sc.notes, sc.updated_at,
	st.first_names AS student_first_names, st.last_names AS student_last_names,
	a.name AS assessment_name, a.course_id, s.name AS subject_name`

const scoreJoins = ` FROM scores sc
	JOIN students st ON st.id = sc.student_id
	JOIN assessments a ON a.id = sc.assessment_id
	JOIN courses c ON c.id = a.course_id
	JOIN subjects s ON s.id = c.subject_id`

// ScoreRepository manages persistence for scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// List returns score details, most recently recorded first.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error) {
	var cond conditions
	if filter.AssessmentID != "" {
		cond.add("sc.assessment_id = $%[1]d", filter.AssessmentID)
	}
	if filter.StudentID != "" {
		cond.add("sc.student_id = $%[1]d", filter.StudentID)
	}
	if filter.CourseID != "" {
		cond.add("a.course_id = $%[1]d", filter.CourseID)
	}
	cond.search(filter.Search, "st.first_names", "st.last_names", "a.name")
	base := scoreJoins + " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"recorded_at": "sc.recorded_at", "value": "sc.value", "student": "st.last_names"}
	order := ordering(filter.ListOptions, allowed, "sc.recorded_at DESC, sc.id ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", scoreDetailSelect, base, order, limit, offset)
	var items []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return items, total, nil
}

// FindByID returns a score detail.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.ScoreDetail, error) {
	var item models.ScoreDetail
	if err := r.db.GetContext(ctx, &item, scoreDetailSelect+scoreJoins+" WHERE sc.id = $1", id); err != nil {
		return nil, err
	}
	item.Decorate()
	return &item, nil
}

// ExistsByPair checks whether the student already has a score for the
// assessment.
func (r *ScoreRepository) ExistsByPair(ctx context.Context, assessmentID, studentID, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "scores", "assessment_id = $1 AND student_id = $2", []interface{}{assessmentID, studentID}, excludeID)
}

// Create inserts a score.
func (r *ScoreRepository) Create(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.RecordedAt.IsZero() {
		score.RecordedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, assessment_id, student_id, value, recorded_at, notes, updated_at)
		VALUES (:id, :assessment_id, :student_id, :value, :recorded_at, :notes, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("create score: %w", err)
	}
	return nil
}

// Update modifies a score.
func (r *ScoreRepository) Update(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scores SET assessment_id = :assessment_id, student_id = :student_id, value = :value, notes = :notes,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

// Delete removes a score.
func (r *ScoreRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "scores", id)
}
