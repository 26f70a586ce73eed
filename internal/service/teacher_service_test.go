package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type fakeCache struct {
	patterns []string
}

func (f *fakeCache) Invalidate(ctx context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return nil
}

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	emailIndex map[string]string
	listResult []models.Teacher
	listTotal  int
	listErr    error
	createErr  error
	deleted    []string
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	if owner, ok := m.emailIndex[email]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Teacher)
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	if _, ok := m.items[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return models.DeletedRows{"teachers": 1, "courses": 2, "assessments": 3}, nil
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func newTeacherService(repo *mockTeacherRepo, cache *fakeCache) *TeacherService {
	return NewTeacherService(repo, NewValidator(), cache, zap.NewNop())
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &mockTeacherRepo{}
	cache := &fakeCache{}
	svc := newTeacherService(repo, cache)

	teacher, err := svc.Create(context.Background(), TeacherRequest{
		FirstNames: " Rosa ",
		LastNames:  "Quispe",
		Email:      "Rosa.Quispe@School.TEST",
		Specialty:  strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rosa", teacher.FirstNames)
	assert.Equal(t, "rosa.quispe@school.test", teacher.Email)
	assert.Nil(t, teacher.Specialty)
	assert.True(t, teacher.Active)
	assert.Equal(t, []string{KPICachePattern}, cache.patterns)
}

func TestTeacherServiceCreateValidation(t *testing.T) {
	svc := newTeacherService(&mockTeacherRepo{}, &fakeCache{})

	_, err := svc.Create(context.Background(), TeacherRequest{FirstNames: "Rosa", LastNames: "Quispe", Email: "not-an-email"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "email", appErr.Field)
}

func TestTeacherServiceDuplicateEmail(t *testing.T) {
	repo := &mockTeacherRepo{
		items:      map[string]*models.Teacher{"t1": {ID: "t1", Email: "rosa@school.test"}},
		emailIndex: map[string]string{"rosa@school.test": "t1"},
	}
	svc := newTeacherService(repo, &fakeCache{})

	_, err := svc.Create(context.Background(), TeacherRequest{FirstNames: "A", LastNames: "B", Email: "rosa@school.test"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	updated, err := svc.Update(context.Background(), "t1", TeacherRequest{FirstNames: "Rosa", LastNames: "Q", Email: "rosa@school.test", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestTeacherServiceUniqueViolationFromStore(t *testing.T) {
	repo := &mockTeacherRepo{createErr: &pq.Error{Code: "23505", Constraint: "teachers_email_key"}}
	svc := newTeacherService(repo, &fakeCache{})

	_, err := svc.Create(context.Background(), TeacherRequest{FirstNames: "A", LastNames: "B", Email: "a@b.test"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "email", appErr.Field)
}

func TestTeacherServiceGetNotFound(t *testing.T) {
	svc := newTeacherService(&mockTeacherRepo{}, &fakeCache{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := &mockTeacherRepo{items: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	cache := &fakeCache{}
	svc := newTeacherService(repo, cache)

	rows, err := svc.Delete(context.Background(), "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 6, rows.Total())
	assert.Len(t, cache.patterns, 1)

	_, err = svc.Delete(context.Background(), "t1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTeacherServiceListPagination(t *testing.T) {
	repo := &mockTeacherRepo{listResult: []models.Teacher{{ID: "t1"}}, listTotal: 41}
	svc := newTeacherService(repo, nil)

	items, pagination, err := svc.List(context.Background(), models.TeacherFilter{ListOptions: models.ListOptions{Page: 3, PageSize: 500}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)

	repo.listErr = errors.New("boom")
	_, _, err = svc.List(context.Background(), models.TeacherFilter{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
