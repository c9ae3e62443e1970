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

type occurrenceService interface {
	Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateOccurrencesRequest) (*dto.GenerateOccurrencesResult, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelOccurrenceResult, error)
	Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OccurrenceResponse, error)
	List(ctx context.Context, query dto.OccurrenceListQuery) ([]dto.OccurrenceResponse, *models.Pagination, error)
	Roster(ctx context.Context, id string) (*dto.RosterResponse, error)
}

// OccurrenceHandler exposes class occurrence endpoints.
type OccurrenceHandler struct {
	service occurrenceService
}

// NewOccurrenceHandler builds a new handler.
func NewOccurrenceHandler(service occurrenceService) *OccurrenceHandler {
	return &OccurrenceHandler{service: service}
}

// Generate godoc
// @Summary Expand a class schedule into occurrences
// @Tags ClassOccurrences
// @Accept json
// @Produce json
// @Param payload body dto.GenerateOccurrencesRequest true "Generation range"
// @Success 201 {object} response.Envelope
// @Router /class-occurrences/generate [post]
func (h *OccurrenceHandler) Generate(c *gin.Context) {
	var req dto.GenerateOccurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List class occurrences with seat usage
// @Tags ClassOccurrences
// @Produce json
// @Param classId query string false "Class ID"
// @Param instructorId query string false "Instructor ID"
// @Param courtId query string false "Court ID"
// @Param status query string false "Occurrence status"
// @Param from query string false "Start of range"
// @Param to query string false "End of range"
// @Success 200 {object} response.Envelope
// @Router /class-occurrences [get]
func (h *OccurrenceHandler) List(c *gin.Context) {
	var query dto.OccurrenceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Roster godoc
// @Summary Enrolled users of an occurrence
// @Tags ClassOccurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /class-occurrences/{id}/enrollments [get]
func (h *OccurrenceHandler) Roster(c *gin.Context) {
	result, err := h.service.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Cancel an occurrence with its enrollments and charges
// @Tags ClassOccurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param payload body dto.CancelRequest false "Force flag"
// @Success 200 {object} response.Envelope
// @Router /class-occurrences/{id}/cancel [patch]
func (h *OccurrenceHandler) Cancel(c *gin.Context) {
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
// @Summary Confirm a scheduled occurrence
// @Tags ClassOccurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /class-occurrences/{id}/confirm [patch]
func (h *OccurrenceHandler) Confirm(c *gin.Context) {
	result, err := h.service.Confirm(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
