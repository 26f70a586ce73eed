package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/response"
)

type academicPeriodService interface {
	List(ctx context.Context, filter models.AcademicPeriodFilter) ([]models.AcademicPeriod, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.AcademicPeriod, error)
	Create(ctx context.Context, req service.AcademicPeriodRequest) (*models.AcademicPeriod, error)
	Update(ctx context.Context, id string, req service.AcademicPeriodRequest) (*models.AcademicPeriod, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// AcademicPeriodHandler exposes academic period endpoints.
type AcademicPeriodHandler struct {
	service academicPeriodService
}

// NewAcademicPeriodHandler constructs a AcademicPeriodHandler.
func NewAcademicPeriodHandler(service academicPeriodService) *AcademicPeriodHandler {
	return &AcademicPeriodHandler{service: service}
}

// List godoc
// @Summary List academic periods
// @Tags AcademicPeriods
// @Produce json
// @Param search query string false "Search by name"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academic-periods [get]
func (h *AcademicPeriodHandler) List(c *gin.Context) {
	filter := models.AcademicPeriodFilter{ListOptions: listOptions(c), Active: queryBool(c, "active")}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get academic period
// @Tags AcademicPeriods
// @Produce json
// @Param id path string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/{id} [get]
func (h *AcademicPeriodHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create academic period
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param payload body service.AcademicPeriodRequest true "Academic period payload"
// @Success 201 {object} response.Envelope
// @Router /academic-periods [post]
func (h *AcademicPeriodHandler) Create(c *gin.Context) {
	var req service.AcademicPeriodRequest
	if !bindJSON(c, &req, "academic period") {
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
// @Summary Update academic period
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param id path string true "Academic period ID"
// @Param payload body service.AcademicPeriodRequest true "Academic period payload"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/{id} [put]
func (h *AcademicPeriodHandler) Update(c *gin.Context) {
	var req service.AcademicPeriodRequest
	if !bindJSON(c, &req, "academic period") {
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
// @Summary Delete academic period and its courses
// @Tags AcademicPeriods
// @Param id path string true "Academic period ID"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/{id} [delete]
func (h *AcademicPeriodHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
