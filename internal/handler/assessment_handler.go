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

type assessmentService interface {
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.AssessmentDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AssessmentDetail, error)
	Create(ctx context.Context, req service.AssessmentRequest) (*models.AssessmentDetail, error)
	Update(ctx context.Context, id string, req service.AssessmentRequest) (*models.AssessmentDetail, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// AssessmentHandler exposes assessment endpoints.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler constructs a AssessmentHandler.
func NewAssessmentHandler(service assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param search query string false "Search by name"
// @Param courseId query string false "Course ID"
// @Param type query string false "Assessment type"
// @Param from query string false "Earliest date (YYYY-MM-DD)"
// @Param to query string false "Latest date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.AssessmentFilter{
		ListOptions: listOptions(c),
		CourseID:    strings.TrimSpace(c.Query("courseId")),
		Type:        models.AssessmentType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
		From:        from,
		To:          to,
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.AssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req service.AssessmentRequest
	if !bindJSON(c, &req, "assessment") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body service.AssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	var req service.AssessmentRequest
	if !bindJSON(c, &req, "assessment") {
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
// @Summary Delete assessment and its scores
// @Tags Assessments
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
