package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ResourceKey addresses a bookable resource: a service, optionally narrowed
// to an employee and/or a location.
type ResourceKey struct {
	ServiceID  uuid.UUID  `json:"service_id"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
}

// Validate rejects a key with no service.
func (k ResourceKey) Validate() error {
	if k.ServiceID == uuid.Nil {
		return NewValidationError("service ID is required")
	}
	return nil
}

// EmployeePart renders the employee component of a key, "*" when unscoped.
func (k ResourceKey) EmployeePart() string {
	if k.EmployeeID == nil {
		return "*"
	}
	return k.EmployeeID.String()
}

// SlotKey renders the canonical lock key for a slot: date, start minute,
// employee (or *) and service. Two conflicting booking attempts always map
// to the same key; attempts on different slots never share one.
func (k ResourceKey) SlotKey(date string, startMinute int) string {
	return fmt.Sprintf("slot:%s:%04d:%s:%s", date, startMinute, k.EmployeePart(), k.ServiceID)
}
