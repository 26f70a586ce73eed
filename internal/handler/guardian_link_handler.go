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

type guardianLinkService interface {
	List(ctx context.Context, filter models.GuardianLinkFilter) ([]models.GuardianLinkDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.GuardianLinkDetail, error)
	Link(ctx context.Context, req service.LinkGuardianRequest) (*models.GuardianLinkDetail, error)
	Update(ctx context.Context, id string, req service.UpdateGuardianLinkRequest) (*models.GuardianLinkDetail, error)
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

// GuardianLinkHandler exposes guardian link endpoints.
type GuardianLinkHandler struct {
	service guardianLinkService
}

// NewGuardianLinkHandler constructs a GuardianLinkHandler.
func NewGuardianLinkHandler(service guardianLinkService) *GuardianLinkHandler {
	return &GuardianLinkHandler{service: service}
}

// List godoc
// @Summary List guardian links
// @Tags GuardianLinks
// @Produce json
// @Param search query string false "Search by student or guardian name"
// @Param studentId query string false "Student ID"
// @Param guardianId query string false "Guardian ID"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /guardian-links [get]
func (h *GuardianLinkHandler) List(c *gin.Context) {
	filter := models.GuardianLinkFilter{
		ListOptions: listOptions(c),
		StudentID:   strings.TrimSpace(c.Query("studentId")),
		GuardianID:  strings.TrimSpace(c.Query("guardianId")),
		Active:      queryBool(c, "active"),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get guardian link
// @Tags GuardianLinks
// @Produce json
// @Param id path string true "Guardian link ID"
// @Success 200 {object} response.Envelope
// @Router /guardian-links/{id} [get]
func (h *GuardianLinkHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Link a guardian to a student
// @Tags GuardianLinks
// @Accept json
// @Produce json
// @Param payload body service.LinkGuardianRequest true "Guardian link payload"
// @Success 201 {object} response.Envelope
// @Router /guardian-links [post]
func (h *GuardianLinkHandler) Create(c *gin.Context) {
	var req service.LinkGuardianRequest
	if !bindJSON(c, &req, "guardian link") {
		return
	}
	item, err := h.service.Link(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update guardian link
// @Tags GuardianLinks
// @Accept json
// @Produce json
// @Param id path string true "Guardian link ID"
// @Param payload body service.UpdateGuardianLinkRequest true "Guardian link payload"
// @Success 200 {object} response.Envelope
// @Router /guardian-links/{id} [put]
func (h *GuardianLinkHandler) Update(c *gin.Context) {
	var req service.UpdateGuardianLinkRequest
	if !bindJSON(c, &req, "guardian link") {
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
// @Summary Delete guardian link
// @Tags GuardianLinks
// @Param id path string true "Guardian link ID"
// @Success 200 {object} response.Envelope
// @Router /guardian-links/{id} [delete]
func (h *GuardianLinkHandler) Delete(c *gin.Context) {
	rows, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted(c, rows)
}
