package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const guardianColumns = "g.id, g.first_names, g.last_names, g.legal_id, g.email, g.phone, g.address, g.relationship, g.created_at, g.updated_at"

// GuardianRepository manages persistence for guardians.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository constructs a GuardianRepository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// List returns guardians ordered by surname.
func (r *GuardianRepository) List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, int, error) {
	var cond conditions
	if filter.Relationship != "" {
		cond.add("g.relationship = $%[1]d", filter.Relationship)
	}
	if filter.StudentID != "" {
		cond.add("EXISTS (SELECT 1 FROM guardian_links l WHERE l.guardian_id = g.id AND l.student_id = $%[1]d AND l.active)", filter.StudentID)
	}
	cond.search(filter.Search, "g.first_names", "g.last_names", "g.legal_id")
	base := "FROM guardians g WHERE 1=1" + cond.clause()

	allowed := map[string]string{"last_names": "g.last_names", "legal_id": "g.legal_id", "created_at": "g.created_at"}
	order := ordering(filter.ListOptions, allowed, "g.last_names ASC, g.first_names ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", guardianColumns, base, order, limit, offset)
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list guardians: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count guardians: %w", err)
	}
	return guardians, total, nil
}

// FindByID fetches a guardian by ID.
func (r *GuardianRepository) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	var guardian models.Guardian
	if err := r.db.GetContext(ctx, &guardian, "SELECT "+guardianColumns+" FROM guardians g WHERE g.id = $1", id); err != nil {
		return nil, err
	}
	return &guardian, nil
}

// ExistsByLegalID checks whether another guardian holds the legal ID.
func (r *GuardianRepository) ExistsByLegalID(ctx context.Context, legalID, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "guardians", "legal_id = $1", []interface{}{legalID}, excludeID)
}

// Create inserts a guardian.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	guardian.CreatedAt = now
	guardian.UpdatedAt = now
	const query = `INSERT INTO guardians (id, first_names, last_names, legal_id, email, phone, address, relationship, created_at, updated_at)
		VALUES (:id, :first_names, :last_names, :legal_id, :email, :phone, :address, :relationship, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("create guardian: %w", err)
	}
	return nil
}

// Update modifies a guardian.
func (r *GuardianRepository) Update(ctx context.Context, guardian *models.Guardian) error {
	guardian.UpdatedAt = time.Now().UTC()
	const query = `UPDATE guardians SET first_names = :first_names, last_names = :last_names, legal_id = :legal_id, email = :email,
		phone = :phone, address = :address, relationship = :relationship, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("update guardian: %w", err)
	}
	return nil
}

// Delete removes a guardian and their links to students.
func (r *GuardianRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "guardians", id)
}
