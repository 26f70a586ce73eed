package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type mockStudentRepo struct {
	items   map[string]*models.Student
	legalID map[string]string
	creates int
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.items))
	for _, st := range m.items {
		out = append(out, *st)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := m.items[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByLegalID(ctx context.Context, legalID, excludeID string) (bool, error) {
	owner, ok := m.legalID[legalID]
	return ok && owner != excludeID, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.creates++
	if m.items == nil {
		m.items = make(map[string]*models.Student)
	}
	student.ID = "s-new"
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	if _, ok := m.items[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.items, id)
	return models.DeletedRows{"students": 1, "enrollments": 2, "scores": 4, "attendance_records": 10}, nil
}

func validStudentRequest() StudentRequest {
	return StudentRequest{
		FirstNames: "Ana María",
		LastNames:  "Pérez Soto",
		LegalID:    "0102030405",
		BirthDate:  "2010-04-12",
		Email:      strPtr(""),
	}
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, &fakeCache{}, zap.NewNop())

	student, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.True(t, student.Active)
	assert.Nil(t, student.Email)
	assert.Equal(t, time.Date(2010, 4, 12, 0, 0, 0, 0, time.UTC), student.BirthDate)
	assert.Equal(t, "Ana María Pérez Soto", student.FullName())
}

func TestStudentServiceCreateRejectsBadDate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, nil, nil)

	req := validStudentRequest()
	req.BirthDate = "12/04/2010"
	_, err := svc.Create(context.Background(), req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "birth_date", appErr.Field)
	assert.Zero(t, repo.creates)
}

func TestStudentServiceDuplicateLegalID(t *testing.T) {
	repo := &mockStudentRepo{
		items:   map[string]*models.Student{"s1": {ID: "s1", LegalID: "0102030405"}},
		legalID: map[string]string{"0102030405": "s1"},
	}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), validStudentRequest())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Zero(t, repo.creates)

	updated, err := svc.Update(context.Background(), "s1", validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.FirstNames)
}

func TestStudentServiceDeleteReportsCascade(t *testing.T) {
	repo := &mockStudentRepo{items: map[string]*models.Student{"s1": {ID: "s1"}}}
	cache := &fakeCache{}
	svc := NewStudentService(repo, nil, cache, nil)

	rows, err := svc.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 10, rows["attendance_records"])
	assert.EqualValues(t, 17, rows.Total())
	assert.Equal(t, []string{KPICachePattern}, cache.patterns)
}
