package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parkspot/internal/auth"
	"parkspot/internal/errors"
	"parkspot/internal/model"
	"parkspot/internal/service"
)

// MockSpotService is a mock implementation of SpotService.
type MockSpotService struct {
	mock.Mock
}

func (m *MockSpotService) ListSpots(ctx context.Context, q service.SpotQuery) ([]model.SpotView, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SpotView), args.Error(1)
}

func (m *MockSpotService) GetSpot(ctx context.Context, id uuid.UUID) (*model.SpotView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpotView), args.Error(1)
}

func (m *MockSpotService) CreateSpot(ctx context.Context, ownerID uuid.UUID, in service.SpotInput) (*model.SpotView, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpotView), args.Error(1)
}

func (m *MockSpotService) UpdateSpot(ctx context.Context, ownerID, spotID uuid.UUID, upd model.SpotUpdate) (*model.SpotView, error) {
	args := m.Called(ctx, ownerID, spotID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpotView), args.Error(1)
}

func (m *MockSpotService) SetAvailability(ctx context.Context, callerID, spotID uuid.UUID, availableSpots int) (*model.SpotView, error) {
	args := m.Called(ctx, callerID, spotID, availableSpots)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpotView), args.Error(1)
}

func (m *MockSpotService) ListOwnedSpots(ctx context.Context, ownerID uuid.UUID) ([]model.ParkingSpot, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ParkingSpot), args.Error(1)
}

// newContext builds an echo context; a non-nil caller is stored as the
// authenticated user.
func newContext(method, target, body string, caller *uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != nil {
		c.Set(auth.ContextKey, &auth.Claims{UserID: caller.String()})
	}
	return c, rec
}

func assertHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, status, he.Code)
	body, ok := he.Message.(errors.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, code, body.Code)
}

func TestSpotHandler_ListSpots_Query(t *testing.T) {
	lat, lng, radius := 40.5, -74.25, 2.0

	tests := []struct {
		name   string
		target string
		want   service.SpotQuery
	}{
		{name: "no filter", target: "/api/parking-spots", want: service.SpotQuery{}},
		{name: "centre only", target: "/api/parking-spots?lat=40.5&lng=-74.25", want: service.SpotQuery{Lat: &lat, Lng: &lng}},
		{name: "centre and radius", target: "/api/parking-spots?lat=40.5&lng=-74.25&radius=2", want: service.SpotQuery{Lat: &lat, Lng: &lng, Radius: &radius}},
		{name: "empty values are absent", target: "/api/parking-spots?lat=&lng=", want: service.SpotQuery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSpotService)
			svc.On("ListSpots", mock.Anything, tt.want).Return([]model.SpotView{}, nil)
			c, rec := newContext(http.MethodGet, tt.target, "", nil)

			require.NoError(t, NewSpotHandler(svc).ListSpots(c))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, "[]", rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestSpotHandler_ListSpots_RejectsNonNumeric(t *testing.T) {
	for _, target := range []string{"/x?lat=abc&lng=1", "/x?lat=1&lng=east", "/x?lat=1&lng=1&radius=far"} {
		svc := new(MockSpotService)
		c, _ := newContext(http.MethodGet, target, "", nil)

		err := NewSpotHandler(svc).ListSpots(c)

		assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
		svc.AssertNotCalled(t, "ListSpots", mock.Anything, mock.Anything)
	}
}

func TestSpotHandler_CreateSpot(t *testing.T) {
	caller := uuid.New()

	tests := []struct {
		name string
		body string
	}{
		{name: "missing coordinates", body: `{"title":"A","address":"B"}`},
		{name: "latitude out of range", body: `{"title":"A","address":"B","latitude":91,"longitude":0}`},
		{name: "unknown spot type", body: `{"title":"A","address":"B","latitude":1,"longitude":1,"spotType":"boat"}`},
		{name: "negative availability", body: `{"title":"A","address":"B","latitude":1,"longitude":1,"availableSpots":-1}`},
		{name: "negative price", body: `{"title":"A","address":"B","latitude":1,"longitude":1,"pricePerHour":-2}`},
		{name: "malformed body", body: `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSpotService)
			c, _ := newContext(http.MethodPost, "/api/parking-spots", tt.body, &caller)

			err := NewSpotHandler(svc).CreateSpot(c)

			assertHTTPError(t, err, http.StatusBadRequest, "VALIDATION_ERROR")
			svc.AssertNotCalled(t, "CreateSpot", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("valid at the equator", func(t *testing.T) {
		svc := new(MockSpotService)
		svc.On("CreateSpot", mock.Anything, caller, mock.MatchedBy(func(in service.SpotInput) bool {
			return in.Latitude == 0 && in.Longitude == 0 && in.Title == "A" && len(in.Amenities) == 1 && in.Amenities[0] == "covered"
		})).Return(&model.SpotView{ParkingSpot: model.ParkingSpot{Title: "A"}}, nil)
		c, rec := newContext(http.MethodPost, "/api/parking-spots",
			`{"title":"A","address":"B","latitude":0,"longitude":0,"amenities":["covered"]}`, &caller)

		require.NoError(t, NewSpotHandler(svc).CreateSpot(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})
}

func TestSpotHandler_UpdateSpot_MapsOwnershipError(t *testing.T) {
	caller := uuid.New()
	spotID := uuid.New()
	svc := new(MockSpotService)
	svc.On("UpdateSpot", mock.Anything, caller, spotID, mock.Anything).Return(nil, errors.ErrSpotNotFoundOrUnauthorized)

	c, _ := newContext(http.MethodPut, "/api/parking-spots/"+spotID.String(), `{"title":"New"}`, &caller)
	c.SetParamNames("id")
	c.SetParamValues(spotID.String())

	err := NewSpotHandler(svc).UpdateSpot(c)

	assertHTTPError(t, err, http.StatusNotFound, "SPOT_NOT_FOUND_OR_UNAUTHORIZED")
}

func TestSpotHandler_SetAvailability(t *testing.T) {
	caller := uuid.New()
	spotID := uuid.New()

	t.Run("missing value", func(t *testing.T) {
		svc := new(MockSpotService)
		c, _ := newContext(http.MethodPatch, "/", `{}`, &caller)
		c.SetParamNames("id")
		c.SetParamValues(spotID.String())

		assertHTTPError(t, NewSpotHandler(svc).SetAvailability(c), http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("zero is accepted", func(t *testing.T) {
		svc := new(MockSpotService)
		svc.On("SetAvailability", mock.Anything, caller, spotID, 0).
			Return(&model.SpotView{ParkingSpot: model.ParkingSpot{ID: spotID, Status: model.SpotStatusFull}}, nil)
		c, rec := newContext(http.MethodPatch, "/", `{"availableSpots":0}`, &caller)
		c.SetParamNames("id")
		c.SetParamValues(spotID.String())

		require.NoError(t, NewSpotHandler(svc).SetAvailability(c))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "full", body["status"])
	})
}

func TestSpotHandler_RequiresCaller(t *testing.T) {
	svc := new(MockSpotService)
	c, _ := newContext(http.MethodGet, "/api/my-spots", "", nil)

	assertHTTPError(t, NewSpotHandler(svc).ListMySpots(c), http.StatusUnauthorized, "TOKEN_REQUIRED")
}

func TestErrorResponse_EchoesUnexpectedErrors(t *testing.T) {
	err := errorResponse(assert.AnError)

	assertHTTPError(t, err, http.StatusInternalServerError, "INTERNAL_ERROR")
	he := err.(*echo.HTTPError)
	assert.Equal(t, assert.AnError.Error(), he.Message.(errors.ErrorResponse).Message)
	assert.Equal(t, assert.AnError, he.Internal)
}
