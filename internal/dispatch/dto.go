package dispatch

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// CreateInput is the request body for creating a delivery.
type CreateInput struct {
	ClientID        int64            `json:"clientId" validate:"required,gt=0"`
	VehicleID       *int64           `json:"vehicleId" validate:"omitempty,gt=0"`
	DriverID        *int64           `json:"driverId" validate:"omitempty,gt=0"`
	PickupAddress   string           `json:"pickupAddress" validate:"required,max=500"`
	DeliveryAddress string           `json:"deliveryAddress" validate:"required,max=500"`
	PickupAt        *time.Time       `json:"pickupAt"`
	DeliverBy       *time.Time       `json:"deliverBy"`
	EstimatedPrice  *decimal.Decimal `json:"estimatedPrice"`
	Notes           string           `json:"notes" validate:"max=2000"`
}

// UpdateStatusInput is the request body for the dedicated status transition
// endpoint. Explicit lifecycle timestamps are accepted but only land on a
// delivery whose corresponding stamp is still empty.
type UpdateStatusInput struct {
	Status      Status     `json:"status" validate:"required"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	StartedAt   *time.Time `json:"startedAt"`
	DeliveredAt *time.Time `json:"deliveredAt"`
}

// UpdateInput is the request body for the general field-update endpoint.
// Nil fields are left untouched.
type UpdateInput struct {
	ClientID        *int64           `json:"clientId" validate:"omitempty,gt=0"`
	VehicleID       *int64           `json:"vehicleId" validate:"omitempty,gt=0"`
	DriverID        *int64           `json:"driverId" validate:"omitempty,gt=0"`
	Status          *Status          `json:"status"`
	PickupAddress   *string          `json:"pickupAddress" validate:"omitempty,max=500"`
	DeliveryAddress *string          `json:"deliveryAddress" validate:"omitempty,max=500"`
	PickupAt        *time.Time       `json:"pickupAt"`
	DeliverBy       *time.Time       `json:"deliverBy"`
	StartedAt       *time.Time       `json:"startedAt"`
	DeliveredAt     *time.Time       `json:"deliveredAt"`
	EstimatedPrice  *decimal.Decimal `json:"estimatedPrice"`
	ActualPrice     *decimal.Decimal `json:"actualPrice"`
	Notes           *string          `json:"notes" validate:"omitempty,max=2000"`
}

// MaskForRole returns the input restricted to the fields the role may set.
// The driver mask is enumerated here field by field, so widening it is a
// deliberate code change rather than a data change. Fields outside the mask
// are dropped silently, not rejected.
func (in UpdateInput) MaskForRole(role shared.Role) UpdateInput {
	if role != shared.RoleDriver {
		return in
	}
	return UpdateInput{
		Status:      in.Status,
		Notes:       in.Notes,
		PickupAt:    in.PickupAt,
		DeliverBy:   in.DeliverBy,
		StartedAt:   in.StartedAt,
		DeliveredAt: in.DeliveredAt,
	}
}

// ListFilter narrows delivery listings.
type ListFilter struct {
	ClientID int64
	DriverID int64
	Status   string
	Limit    int
	Offset   int
}
