package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// BookingHandler serves the public booking endpoints. Customers address
// their reservations by confirmation token only; no authentication is
// required on this surface.
type BookingHandler struct {
	bookings *application.BookingService
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(bookings *application.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// RegisterRoutes registers the booking endpoints.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/bookings", h.Create)
	r.GET("/bookings/:token", h.Get)
	r.POST("/bookings/:token/cancel", h.Cancel)
}

type createBookingRequest struct {
	ServiceID     uuid.UUID        `json:"service_id" binding:"required"`
	EmployeeID    *uuid.UUID       `json:"employee_id"`
	LocationID    *uuid.UUID       `json:"location_id"`
	Date          string           `json:"date" binding:"required"`
	StartAt       time.Time        `json:"start_at" binding:"required"`
	Quantity      int              `json:"quantity"`
	Customer      booking.Customer `json:"customer" binding:"required"`
	Notes         string           `json:"notes"`
	SoftLockToken *uuid.UUID       `json:"soft_lock_token"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		response.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	dto, err := h.bookings.CreateBooking(c.Request.Context(), application.CreateBookingRequest{
		Resource: domain.ResourceKey{
			ServiceID:  req.ServiceID,
			EmployeeID: req.EmployeeID,
			LocationID: req.LocationID,
		},
		Date:          date,
		StartAt:       req.StartAt.UTC(),
		Quantity:      req.Quantity,
		Customer:      req.Customer,
		Notes:         req.Notes,
		RequesterIP:   c.ClientIP(),
		SoftLockToken: req.SoftLockToken,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// Get handles GET /api/v1/bookings/:token.
func (h *BookingHandler) Get(c *gin.Context) {
	dto, err := h.bookings.GetBooking(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Cancel handles POST /api/v1/bookings/:token/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	dto, err := h.bookings.CancelBooking(c.Request.Context(), c.Param("token"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
