package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type fakeKPIRepo struct {
	scores     []kpi.ScoreFact
	attendance []kpi.AttendanceFact
	students   []kpi.StudentRef
	teachers   []kpi.TeacherRef
	courses    []kpi.CourseRef
	counts     kpi.Counts
	scoreErr   error
	loads      int
}

func (f *fakeKPIRepo) ScoreFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.ScoreFact, error) {
	f.loads++
	if f.scoreErr != nil {
		return nil, f.scoreErr
	}
	out := make([]kpi.ScoreFact, 0, len(f.scores))
	for _, s := range f.scores {
		if filter.CourseID != "" && s.CourseID != filter.CourseID {
			continue
		}
		if filter.Since != nil && s.RecordedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeKPIRepo) AttendanceFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.AttendanceFact, error) {
	out := make([]kpi.AttendanceFact, 0, len(f.attendance))
	for _, r := range f.attendance {
		if filter.CourseID != "" && r.CourseID != filter.CourseID {
			continue
		}
		if filter.Since != nil && r.Date.Before(*filter.Since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeKPIRepo) ActiveStudents(ctx context.Context) ([]kpi.StudentRef, error) {
	return f.students, nil
}

func (f *fakeKPIRepo) ActiveTeachers(ctx context.Context) ([]kpi.TeacherRef, error) {
	return f.teachers, nil
}

func (f *fakeKPIRepo) Courses(ctx context.Context) ([]kpi.CourseRef, error) {
	return f.courses, nil
}

func (f *fakeKPIRepo) Course(ctx context.Context, id string) (*kpi.CourseRef, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeKPIRepo) Counts(ctx context.Context) (kpi.Counts, error) {
	return f.counts, nil
}

func (f *fakeKPIRepo) UpcomingAssessments(ctx context.Context, from, to time.Time, limit int) ([]models.AssessmentDetail, error) {
	return []models.AssessmentDetail{}, nil
}

func (f *fakeKPIRepo) RecentScores(ctx context.Context, limit int) ([]models.ScoreDetail, error) {
	return []models.ScoreDetail{}, nil
}

// memoryCache is a CacheRepository kept in a map of JSON payloads.
type memoryCache struct {
	entries map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = nil
	return nil
}

var kpiNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func sampleKPIRepo() *fakeKPIRepo {
	at := func(month time.Month, day int) time.Time { return time.Date(2024, month, day, 9, 0, 0, 0, time.UTC) }
	return &fakeKPIRepo{
		students: []kpi.StudentRef{{ID: "s1", Name: "Ana Pérez"}, {ID: "s2", Name: "Luis Soto"}, {ID: "s3", Name: "Sin Notas"}},
		teachers: []kpi.TeacherRef{{ID: "t1", Name: "Rosa Quispe", StudentCount: 2}},
		courses: []kpi.CourseRef{
			{ID: "c1", GradeLevel: "1st", Subject: "Math", Section: "A", AssessmentCount: 2, EnrollmentCount: 2},
			{ID: "c2", GradeLevel: "1st", Subject: "Art", Section: "A"},
		},
		scores: []kpi.ScoreFact{
			{StudentID: "s1", CourseID: "c1", TeacherID: "t1", Value: 40, RecordedAt: at(5, 2)},
			{StudentID: "s1", CourseID: "c1", TeacherID: "t1", Value: 60, RecordedAt: at(5, 20)},
			{StudentID: "s1", CourseID: "c1", TeacherID: "t1", Value: 80, RecordedAt: at(6, 1)},
			{StudentID: "s2", CourseID: "c1", TeacherID: "t1", Value: 45, RecordedAt: at(6, 3)},
		},
		attendance: []kpi.AttendanceFact{
			{StudentID: "s1", CourseID: "c1", Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent},
			{StudentID: "s2", CourseID: "c1", Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Status: models.AttendanceAbsent},
		},
		counts: kpi.Counts{ActiveStudents: 3, ActiveTeachers: 1, Courses: 2, Assessments: 2},
	}
}

func newKPIService(repo *fakeKPIRepo, cache *CacheService) *KPIService {
	svc := NewKPIService(KPIServiceParams{Repo: repo, Cache: cache, Metrics: NewMetricsService(), Logger: zap.NewNop()})
	svc.now = func() time.Time { return kpiNow }
	return svc
}

func TestKPIServiceAtRisk(t *testing.T) {
	resp, hit, err := newKPIService(sampleKPIRepo(), nil).AtRisk(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "s2", resp.Students[0].StudentID)
	assert.Equal(t, kpi.RiskHigh, resp.Students[0].Level)
	assert.Equal(t, 1, resp.High)
}

func TestKPIServiceCourseAverage(t *testing.T) {
	svc := newKPIService(sampleKPIRepo(), nil)

	avg, _, err := svc.CourseAverage(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 56.25, avg.Average)
	assert.Equal(t, 4, avg.ScoreCount)

	empty, _, err := svc.CourseAverage(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Average)

	_, _, err = svc.CourseAverage(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestKPIServicePassRateAndSummary(t *testing.T) {
	svc := newKPIService(sampleKPIRepo(), nil)

	rate, _, err := svc.PassRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, rate.PassRate)
	assert.Equal(t, 4, rate.ScoreCount)

	summary, _, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 56.25, summary.GeneralAverage)
	assert.Equal(t, 3, summary.ActiveStudents)
}

func TestKPIServiceTopStudentsMinScores(t *testing.T) {
	svc := newKPIService(sampleKPIRepo(), nil)

	byDefault, _, err := svc.TopStudents(context.Background(), 0, nil)
	require.NoError(t, err)
	require.Len(t, byDefault, 1)
	assert.Equal(t, "s1", byDefault[0].StudentID)

	zero := 0
	anyScore, _, err := svc.TopStudents(context.Background(), 0, &zero)
	require.NoError(t, err)
	require.Len(t, anyScore, 2)
	assert.Equal(t, "s1", anyScore[0].StudentID)
	assert.Equal(t, "s2", anyScore[1].StudentID)
}

func TestKPIServiceScoreTrendWindow(t *testing.T) {
	svc := newKPIService(sampleKPIRepo(), nil)
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	points, _, err := svc.ScoreTrend(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-06", points[0].Month)
	assert.Equal(t, 62.5, points[0].Value)

	all, _, err := svc.ScoreTrend(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestKPIServiceAttendanceToday(t *testing.T) {
	day, _, err := newKPIService(sampleKPIRepo(), nil).AttendanceOn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", day.Date)
	assert.Equal(t, 2, day.Total)
}

func TestKPIServiceDashboard(t *testing.T) {
	dash, _, err := newKPIService(sampleKPIRepo(), nil).Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, dash.GradeDistribution.Total)
	assert.Len(t, dash.CourseAverages, 1)
	assert.Len(t, dash.CourseAbsenteeism, 2)
	assert.Len(t, dash.TopStudents, 1)
	assert.Len(t, dash.LowestStudents, 1)
	assert.Len(t, dash.TeacherRanking, 1)
	assert.Equal(t, kpiNow, dash.GeneratedAt)
}

func TestKPIServiceCaching(t *testing.T) {
	repo := sampleKPIRepo()
	cache := NewCacheService(&memoryCache{}, nil, time.Minute, nil, true)
	svc := newKPIService(repo, cache)

	first, hit, err := svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.loads)

	require.NoError(t, cache.Invalidate(context.Background(), KPICachePattern))
	_, hit, err = svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.loads)
}

func TestKPIServiceLoadFailure(t *testing.T) {
	repo := sampleKPIRepo()
	repo.scoreErr = errors.New("connection reset")
	_, _, err := newKPIService(repo, nil).GradeDistribution(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
