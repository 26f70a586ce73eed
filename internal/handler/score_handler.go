package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/response"
)

type scoreService interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ScoreDetail, error)
	Record(ctx context.Context, req service.ScoreRequest) (*models.ScoreDetail, error)
	Update(ctx context.Context, id string, req service.ScoreRequest) (*models.ScoreDetail, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// ScoreHandler exposes score endpoints.
type ScoreHandler struct {
	service scoreService
}

// NewScoreHandler constructs a ScoreHandler.
func NewScoreHandler(service scoreService) *ScoreHandler {
	return &ScoreHandler{service: service}
}

// List godoc
// @Summary List scores
// @Tags Scores
// @Produce json
// @Param search query string false "Search by student name"
// @Param assessmentId query string false "Assessment ID"
// @Param studentId query string false "Student ID"
// @Param courseId query string false "Course ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	filter := models.ScoreFilter{
		ListOptions:  listOptions(c),
		AssessmentID: strings.TrimSpace(c.Query("assessmentId")),
		StudentID:    strings.TrimSpace(c.Query("studentId")),
		CourseID:     strings.TrimSpace(c.Query("courseId")),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get score
// @Tags Scores
// @Produce json
// @Param id path string true "Score ID"
// @Success 200 {object} response.Envelope
// @Router /scores/{id} [get]
func (h *ScoreHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Record a score
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.ScoreRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Router /scores [post]
func (h *ScoreHandler) Create(c *gin.Context) {
	var req service.ScoreRequest
	if !bindJSON(c, &req, "score") {
		return
	}
	item, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update score
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Score ID"
// @Param payload body service.ScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores/{id} [put]
func (h *ScoreHandler) Update(c *gin.Context) {
	var req service.ScoreRequest
	if !bindJSON(c, &req, "score") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete score
// @Tags Scores
// @Param id path string true "Score ID"
// @Success 200 {object} response.Envelope
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
