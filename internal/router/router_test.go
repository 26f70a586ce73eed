package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-indicators-api/internal/handler"
	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type verifierStub map[string]models.UserRole

func (v verifierStub) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := v[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: token, Role: role}, nil
}

func newEngine(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Handlers{
		GradeLevels:     handler.NewGradeLevelHandler(nil),
		Subjects:        handler.NewSubjectHandler(nil),
		AcademicPeriods: handler.NewAcademicPeriodHandler(nil),
		Teachers:        handler.NewTeacherHandler(nil),
		Students:        handler.NewStudentHandler(nil),
		Guardians:       handler.NewGuardianHandler(nil),
		Courses:         handler.NewCourseHandler(nil),
		Enrollments:     handler.NewEnrollmentHandler(nil),
		GuardianLinks:   handler.NewGuardianLinkHandler(nil),
		Assessments:     handler.NewAssessmentHandler(nil),
		Scores:          handler.NewScoreHandler(nil),
		Attendance:      handler.NewAttendanceHandler(nil),
		KPI:             handler.NewKPIHandler(nil, nil),
		Metrics:         handler.NewMetricsHandler(nil, nil),
	}, opts)
}

func TestRoutesRegistered(t *testing.T) {
	r := newEngine(Options{})
	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /metrics",
		"GET /api/v1/students/with-averages",
		"GET /api/v1/courses/with-statistics",
		"POST /api/v1/enrollments",
		"DELETE /api/v1/attendance/:id",
		"PUT /api/v1/guardian-links/:id",
		"GET /api/v1/kpi/at-risk/export",
		"GET /api/v1/kpi/courses/:id/absenteeism",
		"GET /api/v1/kpi/dashboard",
	} {
		assert.True(t, registered[want], want)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestHealthAndReadiness(t *testing.T) {
	r := newEngine(Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthGuardsWrites(t *testing.T) {
	r := newEngine(Options{APIPrefix: "/v2", Verifier: verifierStub{"viewer": models.RoleViewer}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/kpi/summary", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v2/scores", nil)
	req.Header.Set("Authorization", "Bearer viewer")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
