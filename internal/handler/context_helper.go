package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/middleware"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
	"github.com/noah-isme/sports-facility-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindCancelRequest reads the optional cancellation body. An empty body means no force.
func bindCancelRequest(c *gin.Context) (dto.CancelRequest, bool) {
	var req dto.CancelRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
		return req, false
	}
	return req, true
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+name))
		return 0, false
	}
	return v, true
}
