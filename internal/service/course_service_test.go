package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type mockCourseRepo struct {
	items   map[string]*models.Course
	creates int
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	return nil, 0, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.items[id]; ok {
		d := models.CourseDetail{Course: *c, GradeLevelName: "1st", SubjectName: "Math"}
		d.Decorate()
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByKey(ctx context.Context, course *models.Course, excludeID string) (bool, error) {
	for id, c := range m.items {
		if id != excludeID && c.GradeLevelID == course.GradeLevelID && c.SubjectID == course.SubjectID &&
			c.PeriodID == course.PeriodID && c.Section == course.Section {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	m.creates++
	if m.items == nil {
		m.items = make(map[string]*models.Course)
	}
	course.ID = "c-new"
	cp := *course
	m.items[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	cp := *course
	m.items[course.ID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	return models.DeletedRows{"courses": 1}, nil
}

func newCourseService(repo *mockCourseRepo) *CourseService {
	return NewCourseService(CourseServiceParams{
		Courses:     repo,
		GradeLevels: finderStub[models.GradeLevel]{"g1": {ID: "g1"}},
		Subjects:    finderStub[models.Subject]{"sub1": {ID: "sub1"}},
		Teachers:    finderStub[models.Teacher]{"t1": {ID: "t1"}},
		Periods:     finderStub[models.AcademicPeriod]{"p1": {ID: "p1"}},
		Cache:       &fakeCache{},
	})
}

func TestCourseServiceCreateDefaultsSection(t *testing.T) {
	repo := &mockCourseRepo{}
	course, err := newCourseService(repo).Create(context.Background(), CourseRequest{GradeLevelID: "g1", SubjectID: "sub1", TeacherID: "t1", PeriodID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSection, course.Section)
	assert.Equal(t, "1st - Math (A)", course.Label)
}

func TestCourseServiceMissingReference(t *testing.T) {
	repo := &mockCourseRepo{}
	_, err := newCourseService(repo).Create(context.Background(), CourseRequest{GradeLevelID: "g1", SubjectID: "sub1", TeacherID: "ghost", PeriodID: "p1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "teacher_id", appErr.Field)
	assert.Zero(t, repo.creates)
}

func TestCourseServiceDuplicateKey(t *testing.T) {
	repo := &mockCourseRepo{items: map[string]*models.Course{
		"c1": {ID: "c1", GradeLevelID: "g1", SubjectID: "sub1", TeacherID: "t1", PeriodID: "p1", Section: "B"},
	}}
	svc := newCourseService(repo)

	_, err := svc.Create(context.Background(), CourseRequest{GradeLevelID: "g1", SubjectID: "sub1", TeacherID: "t1", PeriodID: "p1", Section: "b"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(context.Background(), "c1", CourseRequest{GradeLevelID: "g1", SubjectID: "sub1", TeacherID: "t1", PeriodID: "p1", Section: "B"})
	assert.NoError(t, err)
}
