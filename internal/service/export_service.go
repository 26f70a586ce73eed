package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/dto"
	"github.com/noah-isme/school-indicators-api/pkg/export"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type atRiskSource interface {
	AtRisk(ctx context.Context) (dto.AtRiskResponse, bool, error)
}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFormat names a rendered report format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered report ready to be written or streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders indicator reports into downloadable files.
type ExportService struct {
	source    atRiskSource
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
	title     string
	now       func() time.Time
}

// DefaultExportTitle heads rendered at-risk reports.
const DefaultExportTitle = "Students at academic risk"

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(source atRiskSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source: source,
		renderers: map[ExportFormat]renderer{
			ExportCSV: export.NewCSVExporter(),
			ExportPDF: export.NewPDFExporter(),
		},
		logger: logger,
		title:  DefaultExportTitle,
		now:    time.Now,
	}
}

// WithTitle overrides the report title. Blank titles are ignored.
func (s *ExportService) WithTitle(title string) *ExportService {
	if title = strings.TrimSpace(title); title != "" {
		s.title = title
	}
	return s
}

// AtRisk renders the at-risk student list in the requested format.
func (s *ExportService) AtRisk(ctx context.Context, format string) (*ExportResult, error) {
	r, ok := s.renderers[ExportFormat(strings.ToLower(strings.TrimSpace(format)))]
	if !ok {
		return nil, appErrors.WithField(appErrors.ErrValidation, "format", "format must be csv or pdf")
	}
	report, _, err := s.source.AtRisk(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"student", "legal_id", "average", "absenteeism", "scores", "risk"}}
	for _, st := range report.Students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"student":     st.StudentName,
			"legal_id":    st.LegalID,
			"average":     strconv.FormatFloat(st.Average, 'f', 2, 64),
			"absenteeism": strconv.FormatFloat(st.Absenteeism, 'f', 2, 64),
			"scores":      strconv.Itoa(st.ScoreCount),
			"risk":        string(st.Level),
		})
	}

	title := fmt.Sprintf("%s (%d high, %d medium)", s.title, report.High, report.Medium)
	payload, err := r.Render(dataset, title)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	s.logger.Info("at-risk report rendered", zap.String("format", r.Extension()), zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("at_risk_%s.%s", s.now().UTC().Format("20060102_150405"), r.Extension()),
		ContentType: r.ContentType(),
		Payload:     payload,
		Rows:        len(dataset.Rows),
	}, nil
}
