package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"

	"parkspot/internal/model"
	"parkspot/internal/service"
)

// SpotHandler handles parking spot endpoints.
type SpotHandler struct {
	spots service.SpotService
}

// NewSpotHandler creates a new spot handler.
func NewSpotHandler(spots service.SpotService) *SpotHandler {
	return &SpotHandler{spots: spots}
}

// CreateSpotRequest is the body of a new spot.
type CreateSpotRequest struct {
	Title          string           `json:"title" validate:"required"`
	Description    *string          `json:"description"`
	Address        string           `json:"address" validate:"required"`
	Latitude       *float64         `json:"latitude" validate:"required,latitude"`
	Longitude      *float64         `json:"longitude" validate:"required,longitude"`
	AvailableSpots *int             `json:"availableSpots" validate:"omitempty,min=0"`
	TotalSpots     *int             `json:"totalSpots" validate:"omitempty,min=1"`
	PricePerHour   *decimal.Decimal `json:"pricePerHour" swaggertype:"number"`
	SpotType       model.SpotType   `json:"spotType" validate:"omitempty,oneof=street parking_lot private garage"`
	Amenities      []string         `json:"amenities"`
	Status         model.SpotStatus `json:"status" validate:"omitempty,oneof=available full inactive"`
}

// UpdateSpotRequest carries the fields to change; absent fields are kept.
type UpdateSpotRequest struct {
	Title          *string           `json:"title" validate:"omitempty,min=1"`
	Description    *string           `json:"description"`
	Address        *string           `json:"address" validate:"omitempty,min=1"`
	Latitude       *float64          `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64          `json:"longitude" validate:"omitempty,longitude"`
	AvailableSpots *int              `json:"availableSpots" validate:"omitempty,min=0"`
	TotalSpots     *int              `json:"totalSpots" validate:"omitempty,min=1"`
	PricePerHour   *decimal.Decimal  `json:"pricePerHour" swaggertype:"number"`
	SpotType       *model.SpotType   `json:"spotType" validate:"omitempty,oneof=street parking_lot private garage"`
	Amenities      *[]string         `json:"amenities"`
	Status         *model.SpotStatus `json:"status" validate:"omitempty,oneof=available full inactive"`
}

// AvailabilityRequest sets the free capacity of a spot.
type AvailabilityRequest struct {
	AvailableSpots *int `json:"availableSpots" validate:"required,min=0"`
}

// ListSpots godoc
// @Summary List parking spots
// @Description Lists spots, most recently updated first. When both lat and lng are given only spots inside the bounding box of radius km around them are returned.
// @Tags parking-spots
// @Produce json
// @Param lat query number false "Latitude of the search centre"
// @Param lng query number false "Longitude of the search centre"
// @Param radius query number false "Search radius in km" default(5)
// @Success 200 {array} model.SpotView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /parking-spots [get]
func (h *SpotHandler) ListSpots(c echo.Context) error {
	var q service.SpotQuery
	var err error
	if q.Lat, err = queryFloat(c, "lat"); err != nil {
		return err
	}
	if q.Lng, err = queryFloat(c, "lng"); err != nil {
		return err
	}
	if q.Radius, err = queryFloat(c, "radius"); err != nil {
		return err
	}

	spots, err := h.spots.ListSpots(c.Request().Context(), q)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, spots)
}

// GetSpot godoc
// @Summary Get a parking spot
// @Tags parking-spots
// @Produce json
// @Param id path string true "Spot ID"
// @Success 200 {object} model.SpotView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /parking-spots/{id} [get]
func (h *SpotHandler) GetSpot(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	spot, err := h.spots.GetSpot(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, spot)
}

// CreateSpot godoc
// @Summary Publish a parking spot
// @Tags parking-spots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSpotRequest true "Spot data"
// @Success 201 {object} model.SpotView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /parking-spots [post]
func (h *SpotHandler) CreateSpot(c echo.Context) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}
	var req CreateSpotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.PricePerHour != nil && req.PricePerHour.IsNegative() {
		return validationError("pricePerHour must not be negative")
	}

	spot, err := h.spots.CreateSpot(c.Request().Context(), ownerID, service.SpotInput{
		Title:          req.Title,
		Description:    null.StringFromPtr(req.Description),
		Address:        req.Address,
		Latitude:       *req.Latitude,
		Longitude:      *req.Longitude,
		AvailableSpots: req.AvailableSpots,
		TotalSpots:     req.TotalSpots,
		PricePerHour:   req.PricePerHour,
		SpotType:       req.SpotType,
		Amenities:      model.Tags(req.Amenities),
		Status:         req.Status,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, spot)
}

// UpdateSpot godoc
// @Summary Update an owned parking spot
// @Tags parking-spots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Spot ID"
// @Param request body UpdateSpotRequest true "Fields to change"
// @Success 200 {object} model.SpotView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /parking-spots/{id} [put]
func (h *SpotHandler) UpdateSpot(c echo.Context) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}
	spotID, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateSpotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.PricePerHour != nil && req.PricePerHour.IsNegative() {
		return validationError("pricePerHour must not be negative")
	}

	upd := model.SpotUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AvailableSpots: req.AvailableSpots,
		TotalSpots:     req.TotalSpots,
		PricePerHour:   req.PricePerHour,
		SpotType:       req.SpotType,
		Status:         req.Status,
	}
	if req.Amenities != nil {
		tags := model.Tags(*req.Amenities)
		upd.Amenities = &tags
	}

	spot, err := h.spots.UpdateSpot(c.Request().Context(), ownerID, spotID, upd)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, spot)
}

// SetAvailability godoc
// @Summary Set the free capacity of a spot
// @Tags parking-spots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Spot ID"
// @Param request body AvailabilityRequest true "Available spots"
// @Success 200 {object} model.SpotView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /parking-spots/{id}/availability [patch]
func (h *SpotHandler) SetAvailability(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	spotID, err := pathID(c)
	if err != nil {
		return err
	}
	var req AvailabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	spot, err := h.spots.SetAvailability(c.Request().Context(), userID, spotID, *req.AvailableSpots)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, spot)
}

// ListMySpots godoc
// @Summary List the caller's spots
// @Tags parking-spots
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ParkingSpot
// @Failure 401 {object} errors.ErrorResponse
// @Router /my-spots [get]
func (h *SpotHandler) ListMySpots(c echo.Context) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}
	spots, err := h.spots.ListOwnedSpots(c.Request().Context(), ownerID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, spots)
}

// queryFloat parses an optional numeric query parameter. Empty values count
// as absent.
func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, validationError(name + " must be a number")
	}
	return &v, nil
}
