package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// IndicatorRepository inspects the externally managed reporting database.
type IndicatorRepository struct {
	db *sqlx.DB
}

// NewIndicatorRepository constructs an IndicatorRepository.
func NewIndicatorRepository(db *sqlx.DB) *IndicatorRepository {
	return &IndicatorRepository{db: db}
}

// Ping checks connectivity.
func (r *IndicatorRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return fmt.Errorf("ping reporting database: %w", err)
	}
	return nil
}

// TableExists reports whether a public table with the given name exists.
func (r *IndicatorRepository) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, table); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

// PublicTables lists table names in the public schema.
func (r *IndicatorRepository) PublicTables(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`
	tables := make([]string, 0)
	if err := r.db.SelectContext(ctx, &tables, query); err != nil {
		return nil, fmt.Errorf("list public tables: %w", err)
	}
	return tables, nil
}

// Sample reads up to limit rows of table, rendering every value as text.
func (r *IndicatorRepository) Sample(ctx context.Context, table string, limit int) ([]string, []map[string]string, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", pq.QuoteIdentifier(table), limit)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s columns: %w", table, err)
	}
	out := make([]map[string]string, 0, limit)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = textValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return columns, out, nil
}

func textValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
