package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/domain/schedule"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/platform/response"
)

// AdminHandler serves the authenticated management surface: the service
// catalog, schedule rules, blackout ranges and the reservation dashboard.
type AdminHandler struct {
	catalog   *application.CatalogService
	schedules *application.ScheduleService
	bookings  *application.BookingService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	catalogSvc *application.CatalogService,
	schedules *application.ScheduleService,
	bookings *application.BookingService,
) *AdminHandler {
	return &AdminHandler{catalog: catalogSvc, schedules: schedules, bookings: bookings}
}

// RegisterRoutes registers the admin endpoints. Every route requires a valid
// token with the admin role.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))

	admin.POST("/services", h.CreateService)
	admin.GET("/services", h.ListServices)
	admin.GET("/services/:id", h.GetService)
	admin.DELETE("/services/:id", h.DeactivateService)

	admin.POST("/schedule-rules", h.CreateRule)
	admin.GET("/schedule-rules", h.ListRules)
	admin.DELETE("/schedule-rules/:id", h.DeactivateRule)

	admin.POST("/blackouts", h.CreateBlackout)
	admin.GET("/blackouts", h.ListBlackouts)
	admin.DELETE("/blackouts/:id", h.DeactivateBlackout)

	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/stats", h.BookingStats)
	admin.POST("/bookings/:id/confirm", h.ConfirmBooking)
}

// --- Catalog ---

// CreateService handles POST /api/v1/admin/services.
func (h *AdminHandler) CreateService(c *gin.Context) {
	var req application.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.catalog.CreateService(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// ListServices handles GET /api/v1/admin/services.
func (h *AdminHandler) ListServices(c *gin.Context) {
	dtos, err := h.catalog.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}

// GetService handles GET /api/v1/admin/services/:id.
func (h *AdminHandler) GetService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a valid UUID")
		return
	}

	dto, err := h.catalog.GetService(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// DeactivateService handles DELETE /api/v1/admin/services/:id.
func (h *AdminHandler) DeactivateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a valid UUID")
		return
	}

	if err := h.catalog.DeactivateService(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}

// --- Schedule rules ---

type createRuleRequest struct {
	Kind        string     `json:"kind" binding:"required"`
	Weekdays    []int      `json:"weekdays"`
	EventDate   *string    `json:"event_date"`
	StartMinute int        `json:"start_minute"`
	EndMinute   int        `json:"end_minute" binding:"required"`
	EmployeeID  *uuid.UUID `json:"employee_id"`
	LocationID  *uuid.UUID `json:"location_id"`
	ServiceID   *uuid.UUID `json:"service_id"`
}

// CreateRule handles POST /api/v1/admin/schedule-rules.
func (h *AdminHandler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	rule := schedule.Rule{
		Kind:        schedule.RuleKind(req.Kind),
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		EmployeeID:  req.EmployeeID,
		LocationID:  req.LocationID,
		ServiceID:   req.ServiceID,
	}
	for _, d := range req.Weekdays {
		rule.Weekdays = append(rule.Weekdays, schedule.Weekday(d))
	}
	if req.EventDate != nil {
		d, err := time.ParseInLocation(dateLayout, *req.EventDate, time.UTC)
		if err != nil {
			response.BadRequest(c, "event_date must be formatted YYYY-MM-DD")
			return
		}
		rule.EventDate = &d
	}

	created, err := h.schedules.CreateRule(c.Request.Context(), rule)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// ListRules handles GET /api/v1/admin/schedule-rules.
func (h *AdminHandler) ListRules(c *gin.Context) {
	page, limit := parsePagination(c)
	rules, total, err := h.schedules.ListRules(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, rules, total, page, limit)
}

// DeactivateRule handles DELETE /api/v1/admin/schedule-rules/:id.
func (h *AdminHandler) DeactivateRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a valid UUID")
		return
	}

	if err := h.schedules.DeactivateRule(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}

// --- Blackouts ---

type createBlackoutRequest struct {
	StartDate  string     `json:"start_date" binding:"required"`
	EndDate    string     `json:"end_date" binding:"required"`
	EmployeeID *uuid.UUID `json:"employee_id"`
	LocationID *uuid.UUID `json:"location_id"`
	Reason     string     `json:"reason"`
}

// CreateBlackout handles POST /api/v1/admin/blackouts.
func (h *AdminHandler) CreateBlackout(c *gin.Context) {
	var req createBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	start, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		response.BadRequest(c, "start_date must be formatted YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
	if err != nil {
		response.BadRequest(c, "end_date must be formatted YYYY-MM-DD")
		return
	}

	created, err := h.schedules.CreateBlackout(c.Request.Context(), schedule.BlackoutRange{
		StartDate:  start,
		EndDate:    end,
		EmployeeID: req.EmployeeID,
		LocationID: req.LocationID,
		Reason:     req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// ListBlackouts handles GET /api/v1/admin/blackouts.
func (h *AdminHandler) ListBlackouts(c *gin.Context) {
	page, limit := parsePagination(c)
	ranges, total, err := h.schedules.ListBlackouts(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, ranges, total, page, limit)
}

// DeactivateBlackout handles DELETE /api/v1/admin/blackouts/:id.
func (h *AdminHandler) DeactivateBlackout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a valid UUID")
		return
	}

	if err := h.schedules.DeactivateBlackout(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}

// --- Reservations ---

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	dtos, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/bookings/stats.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// ConfirmBooking handles POST /api/v1/admin/bookings/:id/confirm.
func (h *AdminHandler) ConfirmBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "id must be a valid UUID")
		return
	}

	dto, err := h.bookings.ConfirmBooking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
