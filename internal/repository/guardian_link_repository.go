package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const guardianLinkColumns = "id, student_id, guardian_id, is_primary, assigned_on, active, created_at"

const guardianLinkDetailSelect = `SELECT l.id, l.student_id, l.guardian_id, l.is_primary, l.assigned_on, l.active, l.created_at,
	st.first_names AS student_first_names, st.last_names AS student_last_names,
	g.first_names AS guardian_first_names, g.last_names AS guardian_last_names, g.relationship`

const guardianLinkJoins = ` FROM guardian_links l
	JOIN students st ON st.id = l.student_id
	JOIN guardians g ON g.id = l.guardian_id`

// GuardianLinkRepository manages persistence for student-guardian links.
type GuardianLinkRepository struct {
	db *sqlx.DB
}

// NewGuardianLinkRepository constructs a GuardianLinkRepository.
func NewGuardianLinkRepository(db *sqlx.DB) *GuardianLinkRepository {
	return &GuardianLinkRepository{db: db}
}

// List returns link details ordered by student surname.
func (r *GuardianLinkRepository) List(ctx context.Context, filter models.GuardianLinkFilter) ([]models.GuardianLinkDetail, int, error) {
	var cond conditions
	if filter.StudentID != "" {
		cond.add("l.student_id = $%[1]d", filter.StudentID)
	}
	if filter.GuardianID != "" {
		cond.add("l.guardian_id = $%[1]d", filter.GuardianID)
	}
	if filter.Active != nil {
		cond.add("l.active = $%[1]d", *filter.Active)
	}
	cond.search(filter.Search, "st.first_names", "st.last_names", "g.first_names", "g.last_names")
	base := guardianLinkJoins + " WHERE 1=1" + cond.clause()

	allowed := map[string]string{"assigned_on": "l.assigned_on", "guardian": "g.last_names", "created_at": "l.created_at"}
	order := ordering(filter.ListOptions, allowed, "st.last_names ASC, st.first_names ASC, l.is_primary DESC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", guardianLinkDetailSelect, base, order, limit, offset)
	var items []models.GuardianLinkDetail
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list guardian links: %w", err)
	}
	for i := range items {
		items[i].Decorate()
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count guardian links: %w", err)
	}
	return items, total, nil
}

// FindByID returns a link detail.
func (r *GuardianLinkRepository) FindByID(ctx context.Context, id string) (*models.GuardianLinkDetail, error) {
	var item models.GuardianLinkDetail
	if err := r.db.GetContext(ctx, &item, guardianLinkDetailSelect+guardianLinkJoins+" WHERE l.id = $1", id); err != nil {
		return nil, err
	}
	item.Decorate()
	return &item, nil
}

// FindByPair returns the link between a student and a guardian, active or not.
func (r *GuardianLinkRepository) FindByPair(ctx context.Context, studentID, guardianID string) (*models.GuardianLink, error) {
	var item models.GuardianLink
	query := "SELECT " + guardianLinkColumns + " FROM guardian_links WHERE student_id = $1 AND guardian_id = $2"
	if err := r.db.GetContext(ctx, &item, query, studentID, guardianID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a link.
func (r *GuardianLinkRepository) Create(ctx context.Context, link *models.GuardianLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if link.AssignedOn.IsZero() {
		link.AssignedOn = now.Truncate(24 * time.Hour)
	}
	link.CreatedAt = now
	const query = `INSERT INTO guardian_links (id, student_id, guardian_id, is_primary, assigned_on, active, created_at)
		VALUES (:id, :student_id, :guardian_id, :is_primary, :assigned_on, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create guardian link: %w", err)
	}
	return nil
}

// Update modifies the flags of a link.
func (r *GuardianLinkRepository) Update(ctx context.Context, link *models.GuardianLink) error {
	const query = `UPDATE guardian_links SET is_primary = :is_primary, assigned_on = :assigned_on, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("update guardian link: %w", err)
	}
	return nil
}

// Reactivate flips an inactive link back to active. It reports false when the
// link was already active.
func (r *GuardianLinkRepository) Reactivate(ctx context.Context, link *models.GuardianLink) (bool, error) {
	const query = `UPDATE guardian_links SET active = TRUE, is_primary = $2, assigned_on = $3 WHERE id = $1 AND NOT active`
	res, err := r.db.ExecContext(ctx, query, link.ID, link.IsPrimary, link.AssignedOn)
	if err != nil {
		return false, fmt.Errorf("reactivate guardian link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reactivate guardian link: %w", err)
	}
	return affected == 1, nil
}

// Delete removes a link.
func (r *GuardianLinkRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "guardian_links", id)
}
