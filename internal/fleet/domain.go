// Package fleet owns vehicles and keeps their availability in step with the
// deliveries they are assigned to.
package fleet

import "time"

// Status is the availability status of a vehicle.
type Status string

const (
	StatusAvailable    Status = "AVAILABLE"
	StatusInTransit    Status = "IN_TRANSIT"
	StatusMaintenance  Status = "MAINTENANCE"
	StatusOutOfService Status = "OUT_OF_SERVICE"
)

// IsValid reports whether s is a known vehicle status.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusInTransit, StatusMaintenance, StatusOutOfService:
		return true
	}
	return false
}

// Vehicle is a tenant's delivery vehicle.
type Vehicle struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenantId"`
	Registration string    `json:"registration"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	CapacityKg   int       `json:"capacityKg"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
