package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/dto"
	"github.com/noah-isme/school-indicators-api/internal/kpi"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type atRiskStub struct {
	students []kpi.RiskAssessment
	err      error
}

func (s atRiskStub) AtRisk(ctx context.Context) (dto.AtRiskResponse, bool, error) {
	return dto.NewAtRiskResponse(s.students), false, s.err
}

func newExportService(source atRiskSource) *ExportService {
	svc := NewExportService(source, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceAtRiskCSV(t *testing.T) {
	svc := newExportService(atRiskStub{students: []kpi.RiskAssessment{
		{StudentName: "Luis Soto", LegalID: "0911", Average: 45, Absenteeism: 12.5, ScoreCount: 1, Level: kpi.RiskHigh},
	}})

	result, err := svc.AtRisk(context.Background(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "at_risk_20240615_083000.csv", result.Filename)
	assert.Equal(t, 1, result.Rows)
	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "student,legal_id,average,absenteeism,scores,risk", lines[0])
	assert.Equal(t, "Luis Soto,0911,45.00,12.50,1,ALTO", lines[1])
}

func TestExportServiceAtRiskPDF(t *testing.T) {
	result, err := newExportService(atRiskStub{}).AtRisk(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF-")))
}

func TestExportServiceRejectsFormat(t *testing.T) {
	_, err := newExportService(atRiskStub{}).AtRisk(context.Background(), "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
