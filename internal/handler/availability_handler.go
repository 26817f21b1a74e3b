package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// AvailabilityHandler serves the public availability queries.
type AvailabilityHandler struct {
	availability *application.AvailabilityService
}

// NewAvailabilityHandler creates an AvailabilityHandler.
func NewAvailabilityHandler(availability *application.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// RegisterRoutes registers the availability endpoints.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/availability", h.GetSlots)
	r.GET("/availability/check", h.CheckSlot)
}

// GetSlots handles GET /api/v1/availability.
// Query: date (YYYY-MM-DD), service_id, employee_id?, location_id?, quantity?.
func (h *AvailabilityHandler) GetSlots(c *gin.Context) {
	date, err := parseDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	key, err := parseResourceKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	slots, err := h.availability.GetAvailableSlots(c.Request.Context(), date, key, parseQuantity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"date":  date.Format(dateLayout),
		"slots": slots,
	})
}

// CheckSlot handles GET /api/v1/availability/check.
// Query: date, start (RFC3339), service_id, employee_id?, location_id?, quantity?.
func (h *AvailabilityHandler) CheckSlot(c *gin.Context) {
	date, err := parseDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	key, err := parseResourceKey(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	startAt, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.BadRequest(c, "start must be an RFC3339 timestamp")
		return
	}
	endAt, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.BadRequest(c, "end must be an RFC3339 timestamp")
		return
	}

	available, err := h.availability.IsSlotAvailable(c.Request.Context(), date, startAt.UTC(), endAt.UTC(), key, parseQuantity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"available": available})
}
