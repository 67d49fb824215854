package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"parkspot/internal/service"
)

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	bookings service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CreateBookingRequest is the body of a booking.
type CreateBookingRequest struct {
	ParkingSpot string           `json:"parkingSpot" validate:"required,uuid"`
	StartTime   *time.Time       `json:"startTime" validate:"required"`
	EndTime     *time.Time       `json:"endTime" validate:"required"`
	TotalCost   *decimal.Decimal `json:"totalCost" validate:"required" swaggertype:"number"`
}

// CreateBooking godoc
// @Summary Book a parking spot
// @Description Stores the booking and takes one unit of the spot's availability.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking data"
// @Success 201 {object} model.BookingView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	spotID, err := uuid.Parse(req.ParkingSpot)
	if err != nil {
		return validationError("invalid parkingSpot")
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), userID, service.BookingInput{
		ParkingSpotID: spotID,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		TotalCost:     *req.TotalCost,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// ListMyBookings godoc
// @Summary List the caller's bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BookingView
// @Failure 401 {object} errors.ErrorResponse
// @Router /bookings/my [get]
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	bookings, err := h.bookings.ListMyBookings(c.Request().Context(), userID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, bookings)
}
