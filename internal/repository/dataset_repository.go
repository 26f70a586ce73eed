package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// resetOrder lists the tables no other table owns. Deleting them through the
// ownership graph empties the whole dataset.
var resetOrder = []string{"students", "guardians", "teachers", "academic_periods", "subjects", "grade_levels"}

// DatasetRepository operates on the school dataset as a whole.
type DatasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository constructs a DatasetRepository.
func NewDatasetRepository(db *sqlx.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Reset deletes every row of every entity in one transaction and reports the
// per-table counts.
func (r *DatasetRepository) Reset(ctx context.Context) (models.DeletedRows, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deleted := models.DeletedRows{}
	for _, table := range resetOrder {
		var ids []string
		if err := tx.SelectContext(ctx, &ids, fmt.Sprintf("SELECT id FROM %s", table)); err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		if len(ids) == 0 {
			continue
		}
		if err := deleteDependents(ctx, tx, table, ids, deleted); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", table), pq.Array(ids))
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", table, err)
		}
		deleted[table] += n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	return deleted, nil
}
