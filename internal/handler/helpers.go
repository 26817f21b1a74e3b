package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/slotwise/service-scheduling/internal/domain"
)

const dateLayout = "2006-01-02"

// parsePagination reads page/limit query parameters with sane clamps.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// parseDate reads a required YYYY-MM-DD query parameter as UTC midnight.
func parseDate(c *gin.Context, param string) (time.Time, error) {
	raw := c.Query(param)
	if raw == "" {
		return time.Time{}, domain.NewValidationError(param + " is required (YYYY-MM-DD)")
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.NewValidationError(param + " must be formatted YYYY-MM-DD")
	}
	return d, nil
}

// parseResourceKey reads service_id plus optional employee_id and location_id
// query parameters into a resource key.
func parseResourceKey(c *gin.Context) (domain.ResourceKey, error) {
	var key domain.ResourceKey

	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		return key, domain.NewValidationError("service_id must be a valid UUID")
	}
	key.ServiceID = serviceID

	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return key, domain.NewValidationError("employee_id must be a valid UUID")
		}
		key.EmployeeID = &id
	}
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return key, domain.NewValidationError("location_id must be a valid UUID")
		}
		key.LocationID = &id
	}
	return key, nil
}

// parseQuantity reads the optional quantity query parameter, defaulting to 1.
func parseQuantity(c *gin.Context) int {
	q, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || q < 1 {
		return 1
	}
	return q
}
