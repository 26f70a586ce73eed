package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const academicPeriodColumns = "id, name, start_date, end_date, active, created_at, updated_at"

// AcademicPeriodRepository manages persistence for academic periods.
type AcademicPeriodRepository struct {
	db *sqlx.DB
}

// NewAcademicPeriodRepository constructs an AcademicPeriodRepository.
func NewAcademicPeriodRepository(db *sqlx.DB) *AcademicPeriodRepository {
	return &AcademicPeriodRepository{db: db}
}

// List returns periods, most recent first.
func (r *AcademicPeriodRepository) List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, int, error) {
	var cond conditions
	if filter.Active != nil {
		cond.add("active = $%[1]d", *filter.Active)
	}
	cond.search(filter.Search, "name")
	base := "FROM academic_periods WHERE 1=1" + cond.clause()

	allowed := map[string]string{"name": "name", "start_date": "start_date", "end_date": "end_date"}
	order := ordering(filter.ListOptions, allowed, "start_date DESC")
	limit, offset := window(filter.ListOptions)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", academicPeriodColumns, base, order, limit, offset)
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list academic periods: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count academic periods: %w", err)
	}
	return periods, total, nil
}

// FindByID fetches a period by ID.
func (r *AcademicPeriodRepository) FindByID(ctx context.Context, id string) (*models.AcademicPeriod, error) {
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, "SELECT "+academicPeriodColumns+" FROM academic_periods WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ExistsByNameAndStart checks the (name, start_date) uniqueness.
func (r *AcademicPeriodRepository) ExistsByNameAndStart(ctx context.Context, name string, start time.Time, excludeID string) (bool, error) {
	return existsWhere(ctx, r.db, "academic_periods", "LOWER(name) = LOWER($1) AND start_date = $2", []interface{}{name, start}, excludeID)
}

// Create inserts a period.
func (r *AcademicPeriodRepository) Create(ctx context.Context, period *models.AcademicPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	const query = `INSERT INTO academic_periods (id, name, start_date, end_date, active, created_at, updated_at)
		VALUES (:id, :name, :start_date, :end_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create academic period: %w", err)
	}
	return nil
}

// Update modifies a period.
func (r *AcademicPeriodRepository) Update(ctx context.Context, period *models.AcademicPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_periods SET name = :name, start_date = :start_date, end_date = :end_date, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update academic period: %w", err)
	}
	return nil
}

// Delete removes a period and the courses offered in it.
func (r *AcademicPeriodRepository) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return deleteOwned(ctx, r.db, "academic_periods", id)
}
