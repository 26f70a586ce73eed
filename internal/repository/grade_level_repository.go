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

const gradeLevelColumns = "id, name, description, created_at, updated_at"

// GradeLevelRepository manages persistence for grade levels.
type GradeLevelRepository struct {
	db *sqlx.DB
}

// NewGradeLevelRepository constructs a GradeLevelRepository.
func NewGradeLevelRepository(db *sqlx.DB) *GradeLevelRepository {
	return &GradeLevelRepository{db: db}
}

// List returns grade levels ordered by name.
func (r *GradeLevelRepository) List(ctx context.Context, filter models.GradeLevelFilter) ([]models.GradeLevel, int, error) {
	var cond conditions
	cond.search(filter.Search, "name", "COALESCE(description, '')")
	base := "FROM grade_levels WHERE 1=1" + cond.clause()

	order := ordering(filter.ListOptions, map[string]string{"name": "name", "created_at": "created_at"}, "name ASC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", gradeLevelColumns, base, order, limit, offset)
	var items []models.GradeLevel
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list grade levels: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count grade levels: %w", err)
	}
	return items, total, nil
}

// FindByID fetches a grade level by ID.
func (r *GradeLevelRepository) FindByID(ctx context.Context, id string) (*models.GradeLevel, error) {
	var item models.GradeLevel
	if err := r.db.GetContext(ctx, &item, "SELECT "+gradeLevelColumns+" FROM grade_levels WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks whether another grade level uses the name.
func (r *GradeLevelRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "grade_levels", "LOWER(name) = LOWER($1)", []interface{}{name}, excludeID)
}

// Create inserts a new grade level.
func (r *GradeLevelRepository) Create(ctx context.Context, item *models.GradeLevel) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO grade_levels (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create grade level: %w", err)
	}
	return nil
}

// Update modifies an existing grade level.
func (r *GradeLevelRepository) Update(ctx context.Context, item *models.GradeLevel) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_levels SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update grade level: %w", err)
	}
	return nil
}

// Delete removes a grade level and the courses it owns.
func (r *GradeLevelRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "grade_levels", id)
}

// existsWhere runs SELECT 1 against table, ignoring the row excludeID.
func existsWhere(ctx context.Context, db *sqlx.DB, table, predicate string, args []interface{}, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s", table, predicate)
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	var exists int
	if err := db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return true, nil
}
