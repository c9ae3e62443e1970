package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type occurrenceServiceMock struct {
	generateResp *dto.GenerateOccurrencesResult
	generateErr  error
	lastReq      dto.GenerateOccurrencesRequest
	lastQuery    dto.OccurrenceListQuery
	lastID       string
	lastForce    bool
	generateCall bool
}

func (m *occurrenceServiceMock) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateOccurrencesRequest) (*dto.GenerateOccurrencesResult, error) {
	m.generateCall = true
	m.lastReq = req
	return m.generateResp, m.generateErr
}

func (m *occurrenceServiceMock) Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelOccurrenceResult, error) {
	m.lastID, m.lastForce = id, force
	return &dto.CancelOccurrenceResult{OccurrenceID: id, Status: "cancelled", EnrollmentsCancelled: 3}, nil
}

func (m *occurrenceServiceMock) Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.OccurrenceResponse, error) {
	m.lastID = id
	return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "occurrence is cancelled")
}

func (m *occurrenceServiceMock) List(ctx context.Context, query dto.OccurrenceListQuery) ([]dto.OccurrenceResponse, *models.Pagination, error) {
	m.lastQuery = query
	return []dto.OccurrenceResponse{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *occurrenceServiceMock) Roster(ctx context.Context, id string) (*dto.RosterResponse, error) {
	m.lastID = id
	return &dto.RosterResponse{Capacity: 2, Enrolled: 2}, nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
}

func TestOccurrenceHandlerGenerate(t *testing.T) {
	mockSvc := &occurrenceServiceMock{generateResp: &dto.GenerateOccurrencesResult{CreatedCount: 8}}
	handler := NewOccurrenceHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/class-occurrences/generate", `{"classId":"class-1","periodStart":"2025-11-01","periodEnd":"2025-11-30"}`, adminClaims())
	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.generateCall)
	assert.Equal(t, "class-1", mockSvc.lastReq.ClassID)
}

func TestOccurrenceHandlerGenerateMapsDomainError(t *testing.T) {
	mockSvc := &occurrenceServiceMock{generateErr: appErrors.ErrNoSchedule}
	handler := NewOccurrenceHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/class-occurrences/generate", `{"classId":"class-1","periodStart":"2025-11-01","periodEnd":"2025-11-30"}`, adminClaims())
	handler.Generate(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NO_SCHEDULE", body.Error.Code)
}

func TestOccurrenceHandlerCancelForce(t *testing.T) {
	mockSvc := &occurrenceServiceMock{}
	handler := NewOccurrenceHandler(mockSvc)

	c, w := newJSONContext(http.MethodPatch, "/class-occurrences/occ-1/cancel", `{"force":true}`, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "occ-1"}}
	handler.Cancel(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "occ-1", mockSvc.lastID)
	assert.True(t, mockSvc.lastForce)
}

func TestOccurrenceHandlerConfirmInvalidTransition(t *testing.T) {
	handler := NewOccurrenceHandler(&occurrenceServiceMock{})

	c, w := newJSONContext(http.MethodPatch, "/class-occurrences/occ-1/confirm", "", adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "occ-1"}}
	handler.Confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOccurrenceHandlerListAndRoster(t *testing.T) {
	mockSvc := &occurrenceServiceMock{}
	handler := NewOccurrenceHandler(mockSvc)

	c, w := newJSONContext(http.MethodGet, "/class-occurrences?classId=3b2d7c4e-8f1a-4e6b-a0c9-5d4e3f2a1b0c&status=scheduled", "", studentClaims())
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3b2d7c4e-8f1a-4e6b-a0c9-5d4e3f2a1b0c", mockSvc.lastQuery.ClassID)
	assert.Equal(t, "scheduled", mockSvc.lastQuery.Status)

	c, w = newJSONContext(http.MethodGet, "/class-occurrences/occ-9/enrollments", "", adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "occ-9"}}
	handler.Roster(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "occ-9", mockSvc.lastID)
}
