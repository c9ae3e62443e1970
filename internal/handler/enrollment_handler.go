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

type enrollmentService interface {
	Enroll(ctx context.Context, actor *models.JWTClaims, req dto.EnrollRequest) (*dto.EnrollmentResult, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*dto.CancelEnrollmentResult, error)
	ListMine(ctx context.Context, actor *models.JWTClaims, upcoming bool) ([]dto.EnrollmentResponse, error)
}

// EnrollmentHandler exposes class enrollment endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs a new enrollment handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Enroll godoc
// @Summary Enroll in a class occurrence
// @Tags ClassEnrollments
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	result, err := h.service.Enroll(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Cancel godoc
// @Summary Release a class seat
// @Tags ClassEnrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /class-enrollments/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	result, err := h.service.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListMine godoc
// @Summary List the caller's enrollments
// @Tags ClassEnrollments
// @Produce json
// @Param upcoming query bool false "Only sessions that have not started"
// @Success 200 {object} response.Envelope
// @Router /class-enrollments/me [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	upcoming := c.Query("upcoming") == "true"
	items, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c), upcoming)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
