package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// SoftLockHandler serves the checkout hold endpoints.
type SoftLockHandler struct {
	softLocks *application.SoftLockService
}

// NewSoftLockHandler creates a SoftLockHandler.
func NewSoftLockHandler(softLocks *application.SoftLockService) *SoftLockHandler {
	return &SoftLockHandler{softLocks: softLocks}
}

// RegisterRoutes registers the slot lock endpoints.
func (h *SoftLockHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/slot-locks", h.Create)
	r.DELETE("/slot-locks/:token", h.Release)
}

type createSoftLockRequest struct {
	ServiceID  uuid.UUID  `json:"service_id" binding:"required"`
	EmployeeID *uuid.UUID `json:"employee_id"`
	LocationID *uuid.UUID `json:"location_id"`
	Date       string     `json:"date" binding:"required"`
	StartAt    time.Time  `json:"start_at" binding:"required"`
	EndAt      time.Time  `json:"end_at" binding:"required"`
	TTLSeconds int        `json:"ttl_seconds"`
}

// Create handles POST /api/v1/slot-locks.
func (h *SoftLockHandler) Create(c *gin.Context) {
	var req createSoftLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		response.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	key := domain.ResourceKey{
		ServiceID:  req.ServiceID,
		EmployeeID: req.EmployeeID,
		LocationID: req.LocationID,
	}
	lock, err := h.softLocks.Create(
		c.Request.Context(), key, date,
		req.StartAt.UTC(), req.EndAt.UTC(),
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"token":      lock.Token,
		"slot_key":   lock.SlotKey,
		"expires_at": lock.ExpiresAt,
	})
}

// Release handles DELETE /api/v1/slot-locks/:token. Releasing an unknown or
// already-released token succeeds: release is idempotent.
func (h *SoftLockHandler) Release(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		response.BadRequest(c, "token must be a valid UUID")
		return
	}

	released, err := h.softLocks.Release(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"released": released})
}
