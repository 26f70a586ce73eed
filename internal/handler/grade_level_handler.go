package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/response"
)

type gradeLevelService interface {
	List(ctx context.Context, filter models.GradeLevelFilter) ([]models.GradeLevel, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.GradeLevel, error)
	Create(ctx context.Context, req service.GradeLevelRequest) (*models.GradeLevel, error)
	Update(ctx context.Context, id string, req service.GradeLevelRequest) (*models.GradeLevel, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// GradeLevelHandler exposes grade level endpoints.
type GradeLevelHandler struct {
	service gradeLevelService
}

// NewGradeLevelHandler constructs a GradeLevelHandler.
func NewGradeLevelHandler(service gradeLevelService) *GradeLevelHandler {
	return &GradeLevelHandler{service: service}
}

// List godoc
// @Summary List grade levels
// @Tags GradeLevels
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grade-levels [get]
func (h *GradeLevelHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), models.GradeLevelFilter{ListOptions: listOptions(c)})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get grade level
// @Tags GradeLevels
// @Produce json
// @Param id path string true "Grade level ID"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [get]
func (h *GradeLevelHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create grade level
// @Tags GradeLevels
// @Accept json
// @Produce json
// @Param payload body service.GradeLevelRequest true "Grade level payload"
// @Success 201 {object} response.Envelope
// @Router /grade-levels [post]
func (h *GradeLevelHandler) Create(c *gin.Context) {
	var req service.GradeLevelRequest
	if !bindJSON(c, &req, "grade level") {
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
// @Summary Update grade level
// @Tags GradeLevels
// @Accept json
// @Produce json
// @Param id path string true "Grade level ID"
// @Param payload body service.GradeLevelRequest true "Grade level payload"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [put]
func (h *GradeLevelHandler) Update(c *gin.Context) {
	var req service.GradeLevelRequest
	if !bindJSON(c, &req, "grade level") {
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
// @Summary Delete grade level and the courses taught at it
// @Tags GradeLevels
// @Param id path string true "Grade level ID"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [delete]
func (h *GradeLevelHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
