package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// dependent is a table whose rows are owned through a foreign key column.
type dependent struct {
	table  string
	column string
}

// ownership lists, per table, the rows removed before the owner itself.
var ownership = map[string][]dependent{
	"grade_levels":     {{"courses", "grade_level_id"}},
	"subjects":         {{"courses", "subject_id"}},
	"academic_periods": {{"courses", "period_id"}},
	"teachers":         {{"courses", "teacher_id"}},
	"courses":          {{"enrollments", "course_id"}, {"assessments", "course_id"}, {"attendance_records", "course_id"}},
	"assessments":      {{"scores", "assessment_id"}},
	"students":         {{"enrollments", "student_id"}, {"scores", "student_id"}, {"attendance_records", "student_id"}, {"guardian_links", "student_id"}},
	"guardians":        {{"guardian_links", "guardian_id"}},
}

// deleteOwned removes the row identified by id from table together with every
// row it owns, in one transaction. sql.ErrNoRows is returned when the row does
// not exist.
func deleteOwned(ctx context.Context, db *sqlx.DB, table, id string) (models.DeletedRows, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	deleted := models.DeletedRows{}
	if err := deleteDependents(ctx, tx, table, []string{id}, deleted); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return nil, sql.ErrNoRows
	}
	deleted[table] += n

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete %s: %w", table, err)
	}
	return deleted, nil
}

func deleteDependents(ctx context.Context, tx *sqlx.Tx, table string, ids []string, deleted models.DeletedRows) error {
	for _, dep := range ownership[table] {
		if len(ownership[dep.table]) > 0 {
			var childIDs []string
			query := fmt.Sprintf("SELECT id FROM %s WHERE %s = ANY($1)", dep.table, dep.column)
			if err := tx.SelectContext(ctx, &childIDs, query, pq.Array(ids)); err != nil {
				return fmt.Errorf("select %s owned by %s: %w", dep.table, table, err)
			}
			if len(childIDs) == 0 {
				continue
			}
			if err := deleteDependents(ctx, tx, dep.table, childIDs, deleted); err != nil {
				return err
			}
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)", dep.table, dep.column)
		res, err := tx.ExecContext(ctx, query, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("delete %s owned by %s: %w", dep.table, table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete %s owned by %s: %w", dep.table, table, err)
		}
		if n > 0 {
			deleted[dep.table] += n
		}
	}
	return nil
}
