package service

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/repository"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

// KPICachePattern matches every cached indicator payload.
const KPICachePattern = "kpi:*"

const dateLayout = "2006-01-02"

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// writer bundles what every write path needs: payload validation, logging
// and invalidation of cached indicators.
type writer struct {
	validator *validator.Validate
	cache     cacheInvalidator
	logger    *zap.Logger
}

func newWriter(validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) writer {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return writer{validator: validate, cache: cache, logger: logger}
}

func (w writer) validate(req interface{}, entity string) error {
	err := w.validator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+entity+" payload")
		appErr.Field = fieldErrs[0].Field()
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+entity+" payload")
}

// changed drops cached indicators after a successful write.
func (w writer) changed(ctx context.Context) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Invalidate(ctx, KPICachePattern); err != nil {
		w.logger.Warn("kpi cache invalidation failed", zap.Error(err))
	}
}

func (w writer) deleted(ctx context.Context, entity, id string, rows models.DeletedRows) {
	w.logger.Info("entity deleted",
		zap.String("entity", entity),
		zap.String("id", id),
		zap.Any("rows", map[string]int64(rows)),
		zap.Int64("total", rows.Total()),
	)
	w.changed(ctx)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// loadError maps a repository lookup failure to NOT_FOUND or INTERNAL_ERROR.
func loadError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return internalError(err, "failed to load "+entity)
}

func deleteError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return internalError(err, "failed to delete "+entity)
}

// referenceError is loadError for an id supplied in a payload field.
func referenceError(err error, entity, field string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WithField(appErrors.ErrNotFound, field, entity+" not found")
	}
	return internalError(err, "failed to load "+entity)
}

// writeError maps unique violations to the error registered for the
// constraint and anything else to INTERNAL_ERROR.
func writeError(err error, message string, constraints map[string]error) error {
	if constraint, ok := repository.UniqueViolation(err); ok {
		if mapped, found := constraints[constraint]; found {
			return mapped
		}
		return appErrors.Clone(appErrors.ErrConflict, "record already exists")
	}
	return internalError(err, message)
}

func conflict(field, message string) error {
	return appErrors.WithField(appErrors.ErrConflict, field, message)
}

func ensureUnique(exists bool, err error, field, message string) error {
	if err != nil {
		return internalError(err, "failed to check "+field+" uniqueness")
	}
	if exists {
		return conflict(field, message)
	}
	return nil
}

func paginate(opts models.ListOptions, total int) *models.Pagination {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseDate reads a YYYY-MM-DD value; empty input yields fallback.
func parseDate(value, field string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.WithField(appErrors.ErrValidation, field, field+" must use YYYY-MM-DD")
	}
	return date, nil
}

func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
