package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// ReportingTable is the externally managed table probed for diagnostics.
const ReportingTable = "indicadores_educativos"

type indicatorRepository interface {
	Ping(ctx context.Context) error
	TableExists(ctx context.Context, table string) (bool, error)
	PublicTables(ctx context.Context) ([]string, error)
	Sample(ctx context.Context, table string, limit int) ([]string, []map[string]string, error)
}

// IndicatorService inspects the external reporting database. It is a
// diagnostic and never feeds the computed indicators.
type IndicatorService struct {
	repo   indicatorRepository
	logger *zap.Logger
}

// NewIndicatorService constructs an IndicatorService.
func NewIndicatorService(repo indicatorRepository, logger *zap.Logger) *IndicatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndicatorService{repo: repo, logger: logger}
}

// Probe checks the reporting table and samples up to limit rows. When the
// table is missing the other public tables are listed instead.
func (s *IndicatorService) Probe(ctx context.Context, limit int) (*models.IndicatorSample, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := s.repo.Ping(ctx); err != nil {
		return nil, internalError(err, "reporting database unreachable")
	}
	result := &models.IndicatorSample{Table: ReportingTable}
	exists, err := s.repo.TableExists(ctx, ReportingTable)
	if err != nil {
		return nil, internalError(err, "failed to inspect reporting database")
	}
	result.Exists = exists
	if !exists {
		if result.OtherTables, err = s.repo.PublicTables(ctx); err != nil {
			return nil, internalError(err, "failed to list reporting tables")
		}
		s.logger.Warn("reporting table missing", zap.String("table", ReportingTable), zap.Int("tables", len(result.OtherTables)))
		return result, nil
	}
	if result.Columns, result.Rows, err = s.repo.Sample(ctx, ReportingTable, limit); err != nil {
		return nil, internalError(err, "failed to sample reporting table")
	}
	return result, nil
}
