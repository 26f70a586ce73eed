package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-indicators-api/internal/middleware"
	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
	"github.com/noah-isme/school-indicators-api/pkg/response"
)

const queryDateLayout = "2006-01-02"

// listOptions reads the paging, search and sort parameters shared by every list.
func listOptions(c *gin.Context) models.ListOptions {
	opts := models.ListOptions{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		opts.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		opts.PageSize = size
	}
	return opts
}

func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1":
		val := true
		return &val
	case "false", "0":
		val := false
		return &val
	}
	return nil
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

// queryCount parses an optional non-negative integer parameter. Absent
// values yield nil so callers can apply their own default.
func queryCount(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, appErrors.WithField(appErrors.ErrValidation, key, key+" must be a non-negative integer")
	}
	return &n, nil
}

// queryDate parses an optional YYYY-MM-DD parameter.
func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return nil, appErrors.WithField(appErrors.ErrValidation, key, key+" must use YYYY-MM-DD")
	}
	return &parsed, nil
}

// bindJSON decodes the body into req and writes a validation error on failure.
func bindJSON(c *gin.Context, req interface{}, entity string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+entity+" payload"))
		return false
	}
	return true
}

func deleted(c *gin.Context, rows models.DeletedRows) {
	response.JSON(c, http.StatusOK, gin.H{"deleted": rows, "total": rows.Total()}, nil)
}

// indicator writes a KPI payload with its cache metadata.
func indicator(c *gin.Context, data interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ResponseMeta(c, start))
}
