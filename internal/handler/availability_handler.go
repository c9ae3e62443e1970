package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
	"github.com/noah-isme/sports-facility-api/pkg/response"
)

type availabilityService interface {
	DailySlots(ctx context.Context, resourceType, resourceID, date string, slotMinutes int) (*dto.DailyAvailabilityResponse, error)
	ListWindows(ctx context.Context, resourceType, resourceID string) ([]dto.WindowResponse, error)
	SetWindow(ctx context.Context, actor *models.JWTClaims, resourceType, resourceID string, req dto.SetWindowRequest) (*dto.WindowResponse, error)
}

// AvailabilityHandler serves slot grids and weekly windows of courts and instructors.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// DailySlots godoc
// @Summary Daily slots of a court or instructor
// @Tags Availability
// @Produce json
// @Param type path string true "court or instructor"
// @Param id path string true "Resource ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param slot query int false "Slot size in minutes"
// @Success 200 {object} response.Envelope
// @Router /availability/{type}/{id} [get]
func (h *AvailabilityHandler) DailySlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	slot, ok := queryInt(c, "slot")
	if !ok {
		return
	}
	result, err := h.service.DailySlots(c.Request.Context(), c.Param("type"), c.Param("id"), date, slot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListWindows godoc
// @Summary Weekly windows of a court or instructor
// @Tags Availability
// @Produce json
// @Param type path string true "court or instructor"
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /availability/{type}/{id}/windows [get]
func (h *AvailabilityHandler) ListWindows(c *gin.Context) {
	items, err := h.service.ListWindows(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// SetWindow godoc
// @Summary Create or replace the window of one weekday
// @Tags Availability
// @Accept json
// @Produce json
// @Param type path string true "court or instructor"
// @Param id path string true "Resource ID"
// @Param payload body dto.SetWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Router /availability/{type}/{id}/windows [put]
func (h *AvailabilityHandler) SetWindow(c *gin.Context) {
	var req dto.SetWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability window payload"))
		return
	}
	item, err := h.service.SetWindow(c.Request.Context(), claimsFromContext(c), c.Param("type"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
