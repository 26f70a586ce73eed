package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

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

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	verifier := verifierStub{"admin-token": models.RoleAdmin, "viewer-token": models.RoleViewer}
	r.GET("/kpi", JWT(verifier), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/students", JWT(verifier), RequireRoles(models.RoleAdmin, models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestJWTAndRoles(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		header string
		status int
	}{
		{"missing header", http.MethodGet, "/kpi", "", http.StatusUnauthorized},
		{"malformed header", http.MethodGet, "/kpi", "Token abc", http.StatusUnauthorized},
		{"unknown token", http.MethodGet, "/kpi", "Bearer nope", http.StatusUnauthorized},
		{"viewer reads", http.MethodGet, "/kpi", "Bearer viewer-token", http.StatusOK},
		{"viewer writes", http.MethodPost, "/students", "Bearer viewer-token", http.StatusForbidden},
		{"admin writes", http.MethodPost, "/students", "bearer admin-token", http.StatusCreated},
	}
	r := newAuthEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, []string{"/students/:id", "unmatched"}, rec.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, rec.statuses)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var withHit, withoutHit map[string]interface{}
	r.GET("/hit", func(c *gin.Context) {
		SetCacheHit(c, true)
		withHit = ResponseMeta(c, time.Time{})
	})
	r.GET("/plain", func(c *gin.Context) {
		withoutHit = ResponseMeta(c, time.Now())
	})

	for _, path := range []string{"/hit", "/plain"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, true, withHit["cache_hit"])
	assert.Contains(t, withHit, "processing_time_ms")
	assert.NotContains(t, withoutHit, "cache_hit")
	assert.Contains(t, withoutHit, "processing_time_ms")
}
