package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkspot/internal/auth"
	"parkspot/internal/config"
	"parkspot/internal/db"
	"parkspot/internal/handler"
	"parkspot/internal/service"
)

type apiClient struct {
	t   *testing.T
	e   *echo.Echo
	jwt *auth.JWTService
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := &config.Config{
		DBDriver:    config.DriverSQLite,
		DatabaseDSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		CORSOrigins: []string{"*"},
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
	}
	ctx := context.Background()
	store, err := db.Open(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	spots := service.NewSpotService(store.Spots, store.Users, nil, zap.NewNop())
	bookings := service.NewBookingService(store.Bookings, store.Spots, store.Users, nil, nil, zap.NewNop())

	e := echo.New()
	Register(e, cfg, zap.NewNop(), jwtService, nil, Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(store.Users, jwtService)),
		Spots:    handler.NewSpotHandler(spots),
		Bookings: handler.NewBookingHandler(bookings),
		Users:    handler.NewUserHandler(service.NewUserService(store.Users, nil)),
	})
	return &apiClient{t: t, e: e, jwt: jwtService}
}

func (a *apiClient) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type spotBody struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	AvailableSpots int    `json:"availableSpots"`
	Status         string `json:"status"`
	LastUpdated    string `json:"lastUpdated"`
	CreatedBy      struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"createdBy"`
}

// ownedSpotBody is a spot whose createdBy is the bare owner id, as returned
// by my-spots and inside bookings.
type ownedSpotBody struct {
	ID             string `json:"id"`
	AvailableSpots int    `json:"availableSpots"`
	Status         string `json:"status"`
	CreatedBy      string `json:"createdBy"`
}

func (a *apiClient) register(name, email string) authBody {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": "secret123", "phone": "555-0100",
	}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out authBody
	decode(a.t, rec, &out)
	return out
}

func (a *apiClient) createSpot(token string, lat, lng float64, available int) spotBody {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/parking-spots", map[string]interface{}{
		"title":          "Spot",
		"address":        "1 Main St",
		"latitude":       lat,
		"longitude":      lng,
		"availableSpots": available,
		"totalSpots":     5,
		"pricePerHour":   2.5,
	}, token)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out spotBody
	decode(a.t, rec, &out)
	return out
}

func TestAuthFlow(t *testing.T) {
	api := newAPI(t)

	registered := api.register("Ann", "ann@example.com")
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "ann@example.com", registered.User.Email)

	rec := api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var dup errorBody
	decode(t, rec, &dup)
	assert.Equal(t, "USER_ALREADY_EXISTS", dup.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ann@example.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var bad errorBody
	decode(t, rec, &bad)
	assert.Equal(t, "INVALID_CREDENTIALS", bad.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ann@example.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login authBody
	decode(t, rec, &login)
	claims, err := api.jwt.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
}

func TestRegister_Validation(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "not-an-email"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

func TestGate(t *testing.T) {
	api := newAPI(t)
	user := api.register("Ann", "ann@example.com")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/me", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/me", nil, "garbage").Code)

	rec := api.do(http.MethodGet, "/api/me", nil, user.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	decode(t, rec, &me)
	assert.Equal(t, user.User.ID, me.ID)
	assert.Equal(t, "555-0100", me.Phone)
	assert.NotContains(t, rec.Body.String(), "secret123")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSpotDirectory(t *testing.T) {
	api := newAPI(t)
	owner := api.register("Owner", "owner@example.com")
	other := api.register("Other", "other@example.com")

	spot := api.createSpot(owner.Token, 40.0, -74.0, 3)
	assert.Equal(t, "Owner", spot.CreatedBy.Name)
	assert.Equal(t, "555-0100", spot.CreatedBy.Phone)
	assert.Equal(t, "available", spot.Status)

	t.Run("nearby search includes the spot", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/parking-spots?lat=40.0&lng=-74.0&radius=5", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var spots []spotBody
		decode(t, rec, &spots)
		require.Len(t, spots, 1)
		assert.Equal(t, spot.ID, spots[0].ID)
	})

	t.Run("distant search excludes the spot", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/parking-spots?lat=0&lng=0&radius=5", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var spots []spotBody
		decode(t, rec, &spots)
		assert.Empty(t, spots)
	})

	t.Run("non numeric latitude", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/parking-spots?lat=abc&lng=0", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update by another user", func(t *testing.T) {
		rec := api.do(http.MethodPut, "/api/parking-spots/"+spot.ID, map[string]string{"title": "Mine now"}, other.Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body errorBody
		decode(t, rec, &body)
		assert.Equal(t, "SPOT_NOT_FOUND_OR_UNAUTHORIZED", body.Code)
	})

	t.Run("update by owner", func(t *testing.T) {
		rec := api.do(http.MethodPut, "/api/parking-spots/"+spot.ID, map[string]string{"title": "Renamed"}, owner.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated spotBody
		decode(t, rec, &updated)
		assert.Equal(t, "Renamed", updated.Title)
		assert.NotEqual(t, spot.LastUpdated, updated.LastUpdated)
	})

	t.Run("availability by any authenticated user", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/parking-spots/"+spot.ID+"/availability", map[string]int{"availableSpots": 0}, other.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated spotBody
		decode(t, rec, &updated)
		assert.Equal(t, 0, updated.AvailableSpots)
		assert.Equal(t, "full", updated.Status)
	})

	t.Run("availability on missing spot", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/parking-spots/"+uuid.NewString()+"/availability", map[string]int{"availableSpots": 2}, owner.Token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/parking-spots/"+spot.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/parking-spots/"+uuid.NewString(), nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/parking-spots/not-a-uuid", nil, "").Code)
	})

	t.Run("my spots", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/my-spots", nil, other.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var spots []spotBody
		decode(t, rec, &spots)
		assert.Empty(t, spots)

		rec = api.do(http.MethodGet, "/api/my-spots", nil, owner.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var owned []ownedSpotBody
		decode(t, rec, &owned)
		require.Len(t, owned, 1)
		assert.Equal(t, spot.ID, owned[0].ID)
		assert.Equal(t, owner.User.ID, owned[0].CreatedBy)
	})

	t.Run("price is a JSON number", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/api/parking-spots/"+spot.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var raw map[string]interface{}
		decode(t, rec, &raw)
		assert.Equal(t, 2.5, raw["pricePerHour"])
	})
}

func TestBookingLedger(t *testing.T) {
	api := newAPI(t)
	owner := api.register("Owner", "owner@example.com")
	driver := api.register("Driver", "driver@example.com")
	bystander := api.register("Bystander", "bystander@example.com")
	spot := api.createSpot(owner.Token, 40.0, -74.0, 1)

	book := func(token string) *httptest.ResponseRecorder {
		return api.do(http.MethodPost, "/api/bookings", map[string]interface{}{
			"parkingSpot": spot.ID,
			"startTime":   "2024-05-01T10:00:00Z",
			"endTime":     "2024-05-01T12:00:00Z",
			"totalCost":   5,
		}, token)
	}
	current := func() spotBody {
		rec := api.do(http.MethodGet, "/api/parking-spots/"+spot.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var s spotBody
		decode(t, rec, &s)
		return s
	}

	rec := book(driver.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first struct {
		ID          string        `json:"id"`
		Status      string        `json:"status"`
		TotalCost   interface{}   `json:"totalCost"`
		ParkingSpot ownedSpotBody `json:"parkingSpot"`
		User        struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, rec, &first)
	assert.Equal(t, "booked", first.Status)
	assert.Equal(t, "driver@example.com", first.User.Email)
	assert.Equal(t, 0, first.ParkingSpot.AvailableSpots)
	assert.Equal(t, "full", first.ParkingSpot.Status)
	assert.Equal(t, owner.User.ID, first.ParkingSpot.CreatedBy)
	assert.Equal(t, 5.0, first.TotalCost)

	after := current()
	assert.Equal(t, 0, after.AvailableSpots)
	assert.Equal(t, "full", after.Status)

	rec = book(driver.Token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, -1, current().AvailableSpots)

	rec = api.do(http.MethodGet, "/api/bookings/my", nil, driver.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []struct {
		ID          string        `json:"id"`
		ParkingSpot ownedSpotBody `json:"parkingSpot"`
	}
	decode(t, rec, &mine)
	require.Len(t, mine, 2)
	assert.NotEqual(t, first.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Equal(t, spot.ID, mine[0].ParkingSpot.ID)
	assert.Equal(t, -1, mine[0].ParkingSpot.AvailableSpots)

	rec = api.do(http.MethodGet, "/api/bookings/my", nil, bystander.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &mine)
	assert.Empty(t, mine)

	rec = api.do(http.MethodPost, "/api/bookings", map[string]interface{}{
		"parkingSpot": uuid.NewString(),
		"startTime":   "2024-05-01T10:00:00Z",
		"endTime":     "2024-05-01T12:00:00Z",
		"totalCost":   5,
	}, driver.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	api := newAPI(t)
	rec := api.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
