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

type guardianService interface {
	List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Guardian, error)
	Create(ctx context.Context, req service.GuardianRequest) (*models.Guardian, error)
	Update(ctx context.Context, id string, req service.GuardianRequest) (*models.Guardian, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// GuardianHandler exposes guardian endpoints.
type GuardianHandler struct {
	service guardianService
}

// NewGuardianHandler constructs a GuardianHandler.
func NewGuardianHandler(service guardianService) *GuardianHandler {
	return &GuardianHandler{service: service}
}

// List godoc
// @Summary List guardians
// @Tags Guardians
// @Produce json
// @Param search query string false "Search by name or email"
// @Param studentId query string false "Only guardians linked to the student"
// @Param relationship query string false "Relationship to the student"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /guardians [get]
func (h *GuardianHandler) List(c *gin.Context) {
	filter := models.GuardianFilter{
		ListOptions:  listOptions(c),
		StudentID:    strings.TrimSpace(c.Query("studentId")),
		Relationship: models.Relationship(strings.ToLower(strings.TrimSpace(c.Query("relationship")))),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get guardian
// @Tags Guardians
// @Produce json
// @Param id path string true "Guardian ID"
// @Success 200 {object} response.Envelope
// @Router /guardians/{id} [get]
func (h *GuardianHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 201 {object} response.Envelope
// @Router /guardians [post]
func (h *GuardianHandler) Create(c *gin.Context) {
	var req service.GuardianRequest
	if !bindJSON(c, &req, "guardian") {
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
// @Summary Update guardian
// @Tags Guardians
// @Accept json
// @Produce json
// @Param id path string true "Guardian ID"
// @Param payload body service.GuardianRequest true "Guardian payload"
// @Success 200 {object} response.Envelope
// @Router /guardians/{id} [put]
func (h *GuardianHandler) Update(c *gin.Context) {
	var req service.GuardianRequest
	if !bindJSON(c, &req, "guardian") {
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
// @Summary Delete guardian and their links
// @Tags Guardians
// @Param id path string true "Guardian ID"
// @Success 200 {object} response.Envelope
// @Router /guardians/{id} [delete]
func (h *GuardianHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
