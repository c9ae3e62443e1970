package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-facility-api/internal/dto"
	"github.com/noah-isme/sports-facility-api/internal/middleware"
	"github.com/noah-isme/sports-facility-api/internal/models"
	appErrors "github.com/noah-isme/sports-facility-api/pkg/errors"
)

type bookingServiceMock struct {
	checkResp  *dto.AvailabilityCheckResponse
	createResp *dto.BookingResult
	createErr  error
	cancelResp *dto.CancelBookingResult
	listResp   []dto.BookingResponse
	listPage   *models.Pagination

	lastReq    dto.BookingRequest
	lastQuery  dto.BookingListQuery
	lastID     string
	lastForce  bool
	lastActor  *models.JWTClaims
	createCall bool
	cancelCall bool
	listCall   bool
}

func (m *bookingServiceMock) CheckAvailability(ctx context.Context, req dto.BookingRequest) (*dto.AvailabilityCheckResponse, error) {
	m.lastReq = req
	return m.checkResp, nil
}

func (m *bookingServiceMock) Create(ctx context.Context, actor *models.JWTClaims, req dto.BookingRequest) (*dto.BookingResult, error) {
	m.createCall = true
	m.lastActor = actor
	m.lastReq = req
	return m.createResp, m.createErr
}

func (m *bookingServiceMock) Reschedule(ctx context.Context, actor *models.JWTClaims, id string, req dto.RescheduleBookingRequest) (*dto.BookingResult, error) {
	m.lastID = id
	return m.createResp, m.createErr
}

func (m *bookingServiceMock) Cancel(ctx context.Context, actor *models.JWTClaims, id string, force bool) (*dto.CancelBookingResult, error) {
	m.cancelCall = true
	m.lastID = id
	m.lastForce = force
	return m.cancelResp, nil
}

func (m *bookingServiceMock) Confirm(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error) {
	m.lastID = id
	return &dto.BookingResponse{ID: id, Status: string(models.BookingConfirmed)}, nil
}

func (m *bookingServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*dto.BookingResponse, error) {
	m.lastID = id
	return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
}

func (m *bookingServiceMock) List(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error) {
	m.listCall = true
	m.lastQuery = query
	return m.listResp, m.listPage, nil
}

func (m *bookingServiceMock) ListMine(ctx context.Context, actor *models.JWTClaims, query dto.BookingListQuery) ([]dto.BookingResponse, *models.Pagination, error) {
	return m.List(ctx, actor, query)
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
}

func newJSONContext(method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestBookingHandlerCreate(t *testing.T) {
	mockSvc := &bookingServiceMock{createResp: &dto.BookingResult{Booking: dto.BookingResponse{ID: "b-1", Status: "pending"}}}
	handler := NewBookingHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/bookings", `{"kind":"court","courtId":"court-1","start":"2025-11-10T10:00:00","end":"2025-11-10T11:00:00"}`, studentClaims())
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCall)
	assert.Equal(t, "court-1", mockSvc.lastReq.CourtID)
	assert.Equal(t, "student-1", mockSvc.lastActor.UserID)

	var body struct {
		Data dto.BookingResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "b-1", body.Data.Booking.ID)
}

func TestBookingHandlerCreateInvalidBody(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	handler := NewBookingHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/bookings", `{"kind":`, studentClaims())
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.createCall)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	mockSvc := &bookingServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "court is booked")}
	handler := NewBookingHandler(mockSvc)

	c, w := newJSONContext(http.MethodPost, "/bookings", `{"kind":"court","courtId":"court-1","start":"2025-11-10T10:00:00","end":"2025-11-10T11:00:00"}`, studentClaims())
	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
}

func TestBookingHandlerCancel(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		mockSvc := &bookingServiceMock{cancelResp: &dto.CancelBookingResult{BookingID: "b-1", Status: "cancelled"}}
		handler := NewBookingHandler(mockSvc)

		c, w := newJSONContext(http.MethodPatch, "/bookings/b-1/cancel", "", studentClaims())
		c.Params = gin.Params{{Key: "id", Value: "b-1"}}
		handler.Cancel(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, mockSvc.cancelCall)
		assert.Equal(t, "b-1", mockSvc.lastID)
		assert.False(t, mockSvc.lastForce)
	})

	t.Run("force", func(t *testing.T) {
		mockSvc := &bookingServiceMock{cancelResp: &dto.CancelBookingResult{BookingID: "b-1", Status: "cancelled"}}
		handler := NewBookingHandler(mockSvc)

		c, w := newJSONContext(http.MethodPatch, "/bookings/b-1/cancel", `{"force":true}`, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
		c.Params = gin.Params{{Key: "id", Value: "b-1"}}
		handler.Cancel(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, mockSvc.lastForce)
	})

	t.Run("malformed body", func(t *testing.T) {
		mockSvc := &bookingServiceMock{}
		handler := NewBookingHandler(mockSvc)

		c, w := newJSONContext(http.MethodPatch, "/bookings/b-1/cancel", `{"force":`, studentClaims())
		c.Params = gin.Params{{Key: "id", Value: "b-1"}}
		handler.Cancel(c)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, mockSvc.cancelCall)
	})
}

func TestBookingHandlerListBindsQuery(t *testing.T) {
	mockSvc := &bookingServiceMock{
		listResp: []dto.BookingResponse{{ID: "b-1"}},
		listPage: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	handler := NewBookingHandler(mockSvc)

	c, w := newJSONContext(http.MethodGet, "/bookings?kind=court&courtId=6f1c1f0e-2b8a-4c55-9d7e-0c1a9b3e5d21&page=2&pageSize=10", "", &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCall)
	assert.Equal(t, "court", mockSvc.lastQuery.Kind)
	assert.Equal(t, "6f1c1f0e-2b8a-4c55-9d7e-0c1a9b3e5d21", mockSvc.lastQuery.CourtID)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)

	var body struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 11, body.Pagination.TotalCount)
}

func TestBookingHandlerListRejectsMalformedResourceFilter(t *testing.T) {
	mockSvc := &bookingServiceMock{}
	handler := NewBookingHandler(mockSvc)

	c, w := newJSONContext(http.MethodGet, "/bookings?courtId=court-1", "", &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.listCall)
}

func TestBookingHandlerGetNotFound(t *testing.T) {
	handler := NewBookingHandler(&bookingServiceMock{})

	c, w := newJSONContext(http.MethodGet, "/bookings/missing", "", studentClaims())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
