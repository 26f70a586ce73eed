package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	mu            sync.Mutex
	items         map[string]*models.Enrollment
	creates       int
	updates       int
	reactivations int
	createErr     error
	// pairGate, when set, holds every FindByPair caller until all have read.
	pairGate *sync.WaitGroup
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.items[id]; ok {
		return &models.EnrollmentDetail{Enrollment: *e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindByPair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	found := m.findPair(studentID, courseID)
	if m.pairGate != nil {
		m.pairGate.Done()
		m.pairGate.Wait()
	}
	if found == nil {
		return nil, sql.ErrNoRows
	}
	return found, nil
}

func (m *mockEnrollmentRepo) findPair(studentID, courseID string) *models.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.StudentID == studentID && e.CourseID == courseID {
			cp := *e
			return &cp
		}
	}
	return nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.creates++
	if m.items == nil {
		m.items = make(map[string]*models.Enrollment)
	}
	enrollment.ID = "e" + string(rune('0'+m.creates))
	cp := *enrollment
	m.items[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *enrollment
	m.items[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Reactivate(ctx context.Context, id string, enrolledOn time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok || e.Active {
		return false, nil
	}
	m.reactivations++
	e.Active = true
	e.EnrolledOn = enrolledOn
	return true, nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.items, id)
	return models.DeletedRows{"enrollments": 1}, nil
}

func newEnrollmentService(repo *mockEnrollmentRepo) *EnrollmentService {
	svc := NewEnrollmentService(repo,
		studentStub{"s1": {ID: "s1"}},
		courseStub{"c1": {Course: models.Course{ID: "c1"}}},
		nil, &fakeCache{}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC) }
	return svc
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	item, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.True(t, item.Active)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), item.EnrolledOn)
}

func TestEnrollmentServiceDuplicateDoesNotWrite(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)
	req := EnrollRequest{StudentID: "s1", CourseID: "c1", EnrolledOn: "2024-03-01"}

	_, err := svc.Enroll(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
	assert.Equal(t, 1, repo.creates)
	assert.Zero(t, repo.updates)
	assert.Len(t, repo.items, 1)
}

func TestEnrollmentServiceReactivates(t *testing.T) {
	repo := &mockEnrollmentRepo{items: map[string]*models.Enrollment{
		"e9": {ID: "e9", StudentID: "s1", CourseID: "c1", Active: false},
	}}
	svc := newEnrollmentService(repo)

	item, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1", EnrolledOn: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "e9", item.ID)
	assert.True(t, item.Active)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), item.EnrolledOn)
	assert.Zero(t, repo.creates)
	assert.Equal(t, 1, repo.reactivations)
}

func TestEnrollmentServiceConcurrentReactivationHasOneWinner(t *testing.T) {
	gate := &sync.WaitGroup{}
	gate.Add(2)
	repo := &mockEnrollmentRepo{
		items:    map[string]*models.Enrollment{"e9": {ID: "e9", StudentID: "s1", CourseID: "c1", Active: false}},
		pairGate: gate,
	}
	svc := newEnrollmentService(repo)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, appErrors.ErrDuplicateEnrollment):
			duplicates++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)
	assert.Equal(t, 1, repo.reactivations)
	assert.Zero(t, repo.creates)
}

func TestEnrollmentServiceMissingReferences(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "ghost", CourseID: "c1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "student_id", appErr.Field)

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "ghost"})
	assert.Equal(t, "course_id", appErrors.FromError(err).Field)
}

func TestEnrollmentServiceConcurrentInsertLoses(t *testing.T) {
	repo := &mockEnrollmentRepo{createErr: &pq.Error{Code: "23505", Constraint: "enrollments_student_course_key"}}
	svc := newEnrollmentService(repo)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseID: "c1"})
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
}

func TestEnrollmentServiceUpdate(t *testing.T) {
	repo := &mockEnrollmentRepo{items: map[string]*models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", Active: true, EnrolledOn: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newEnrollmentService(repo)

	item, err := svc.Update(context.Background(), "e1", UpdateEnrollmentRequest{Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, item.Active)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), item.EnrolledOn)

	_, err = svc.Update(context.Background(), "missing", UpdateEnrollmentRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
