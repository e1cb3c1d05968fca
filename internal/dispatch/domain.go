// Package dispatch owns deliveries: their lifecycle status machine, the
// per-role rules for mutating them, and the vehicle side effects of moving
// them through the lifecycle.
package dispatch

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a delivery.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid reports whether s is a known delivery status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Delivery is a transport job for a client, optionally assigned to a driver
// and a vehicle. StartedAt and DeliveredAt are stamped once on the first
// transition into IN_PROGRESS and DELIVERED and never overwritten.
type Delivery struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenantId"`
	ClientID        int64           `json:"clientId"`
	VehicleID       *int64          `json:"vehicleId,omitempty"`
	DriverID        *int64          `json:"driverId,omitempty"`
	Status          Status          `json:"status"`
	PickupAddress   string          `json:"pickupAddress"`
	DeliveryAddress string          `json:"deliveryAddress"`
	PickupAt        *time.Time      `json:"pickupAt,omitempty"`
	DeliverBy       *time.Time      `json:"deliverBy,omitempty"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	EstimatedPrice  decimal.Decimal `json:"estimatedPrice"`
	ActualPrice     decimal.Decimal `json:"actualPrice"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
