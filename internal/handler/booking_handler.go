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

type bookingService interface {
	CheckAvailability(ctx context.Context, req dto.BookingRequest) (*dto.AvailabilityCheckResponse, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.BookingRequest) (*dto.BookingResult, error)
	Reschedule(ctx context.Context, actor *models.JWTClaims, id string, req dto.RescheduleBookingRequest) (*dto.BookingResult, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelBookingResult, error)
	Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error)
	List(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error)
	ListMine(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error)
}

// BookingHandler exposes court and personal-session booking endpoints.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// CheckAvailability godoc
// @Summary Check whether a booking could be placed
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BookingRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Router /bookings/check-availability [post]
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	result, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Book a court or a personal session
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param kind query string false "court or personal"
// @Param status query string false "Booking status"
// @Param courtId query string false "Court ID"
// @Param instructorId query string false "Instructor ID"
// @Param ownerId query string false "Owner (admins only)"
// @Param from query string false "Start of range (YYYY-MM-DDTHH:MM:SS)"
// @Param to query string false "End of range (YYYY-MM-DDTHH:MM:SS)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListMine godoc
// @Summary List the caller's bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings/me [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Reschedule godoc
// @Summary Move a booking to a new interval
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.RescheduleBookingRequest true "New schedule"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [patch]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	result, err := h.service.Reschedule(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Cancel a booking and its open charge
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.CancelRequest false "Admin force flag"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c *gin.Context) {
	req, ok := bindCancelRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Confirm godoc
// @Summary Confirm a pending booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/confirm [patch]
func (h *BookingHandler) Confirm(c *gin.Context) {
	item, err := h.service.Confirm(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
