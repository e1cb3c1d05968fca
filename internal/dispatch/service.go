package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// VehicleReflector propagates a delivery status change onto the assigned
// vehicle. Implemented by the fleet service.
type VehicleReflector interface {
	ApplyDeliveryStatus(ctx context.Context, tenantID, vehicleID int64, deliveryStatus string) error
}

// Service handles delivery business logic.
type Service struct {
	repo      Repository
	reflector VehicleReflector
	policy    TransitionPolicy
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService builds the dispatch service. A nil policy falls back to the
// unrestricted one.
func NewService(repo Repository, reflector VehicleReflector, policy TransitionPolicy, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if policy == nil {
		policy = UnrestrictedPolicy{}
	}
	return &Service{repo: repo, reflector: reflector, policy: policy, audit: audit, logger: logger}
}

// Create stores a new PENDING delivery.
func (s *Service) Create(ctx context.Context, ident shared.Identity, in CreateInput) (*Delivery, error) {
	ok, err := s.repo.ClientExists(ctx, ident.TenantID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrClientNotFound
	}
	if err := s.checkAssignments(ctx, ident.TenantID, in.VehicleID, in.DriverID); err != nil {
		return nil, err
	}

	estimated := decimal.Zero
	if in.EstimatedPrice != nil {
		estimated = *in.EstimatedPrice
	}
	d, err := s.repo.Create(ctx, Delivery{
		TenantID:        ident.TenantID,
		ClientID:        in.ClientID,
		VehicleID:       in.VehicleID,
		DriverID:        in.DriverID,
		Status:          StatusPending,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
		PickupAt:        in.PickupAt,
		DeliverBy:       in.DeliverBy,
		EstimatedPrice:  estimated,
		ActualPrice:     decimal.Zero,
		Notes:           in.Notes,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, ident, "delivery.created", d.ID, nil)
	return d, nil
}

// UpdateStatus runs the delivery status machine: ownership check for
// drivers, the pluggable transition policy, first-write-wins lifecycle
// stamping, and the vehicle status side effect.
func (s *Service) UpdateStatus(ctx context.Context, ident shared.Identity, id int64, in UpdateStatusInput) (*Delivery, error) {
	if !in.Status.IsValid() {
		return nil, ErrUnknownStatus
	}

	d, err := s.repo.Get(ctx, ident.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDriverOwnership(ident, d); err != nil {
		return nil, err
	}
	if err := s.policy.Allow(d.Status, in.Status); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrConflict, err)
	}

	now := time.Now()
	previous := d.Status
	d.Status = in.Status
	stampLifecycle(d, in.Status, in.StartedAt, in.DeliveredAt, now)
	if in.Notes != nil {
		d.Notes = *in.Notes
	}

	updated, err := s.repo.Update(ctx, *d)
	if err != nil {
		return nil, err
	}

	if updated.VehicleID != nil && s.reflector != nil {
		if err := s.reflector.ApplyDeliveryStatus(ctx, ident.TenantID, *updated.VehicleID, string(updated.Status)); err != nil {
			s.logger.Warn("vehicle status reflection failed",
				slog.Int64("delivery_id", updated.ID),
				slog.Int64("vehicle_id", *updated.VehicleID),
				slog.Any("error", err))
		}
	}

	s.recordAudit(ctx, ident, "delivery.status_changed", updated.ID, map[string]any{
		"from": string(previous),
		"to":   string(updated.Status),
	})
	return updated, nil
}

// Update applies a partial field update. The input is first narrowed to the
// caller's role mask; for drivers everything outside the mask is dropped
// without error. Status changes through this path do not touch the vehicle.
func (s *Service) Update(ctx context.Context, ident shared.Identity, id int64, in UpdateInput) (*Delivery, error) {
	d, err := s.repo.Get(ctx, ident.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDriverOwnership(ident, d); err != nil {
		return nil, err
	}
	in = in.MaskForRole(ident.Role)

	if in.Status != nil && !in.Status.IsValid() {
		return nil, ErrUnknownStatus
	}
	if in.ClientID != nil {
		ok, err := s.repo.ClientExists(ctx, ident.TenantID, *in.ClientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrClientNotFound
		}
		d.ClientID = *in.ClientID
	}
	if err := s.checkAssignments(ctx, ident.TenantID, in.VehicleID, in.DriverID); err != nil {
		return nil, err
	}

	if in.VehicleID != nil {
		d.VehicleID = in.VehicleID
	}
	if in.DriverID != nil {
		d.DriverID = in.DriverID
	}
	if in.Status != nil {
		d.Status = *in.Status
	}
	if in.PickupAddress != nil {
		d.PickupAddress = *in.PickupAddress
	}
	if in.DeliveryAddress != nil {
		d.DeliveryAddress = *in.DeliveryAddress
	}
	if in.PickupAt != nil {
		d.PickupAt = in.PickupAt
	}
	if in.DeliverBy != nil {
		d.DeliverBy = in.DeliverBy
	}
	if in.StartedAt != nil && d.StartedAt == nil {
		d.StartedAt = in.StartedAt
	}
	if in.DeliveredAt != nil && d.DeliveredAt == nil {
		d.DeliveredAt = in.DeliveredAt
	}
	if in.EstimatedPrice != nil {
		d.EstimatedPrice = *in.EstimatedPrice
	}
	if in.ActualPrice != nil {
		d.ActualPrice = *in.ActualPrice
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}

	updated, err := s.repo.Update(ctx, *d)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, ident, "delivery.updated", updated.ID, nil)
	return updated, nil
}

// Delete removes a delivery. In-progress and delivered deliveries are
// protected.
func (s *Service) Delete(ctx context.Context, ident shared.Identity, id int64) error {
	d, err := s.repo.Get(ctx, ident.TenantID, id)
	if err != nil {
		return err
	}
	if d.Status == StatusInProgress || d.Status == StatusDelivered {
		return ErrDeliveryLocked
	}
	if err := s.repo.Delete(ctx, ident.TenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, ident, "delivery.deleted", id, nil)
	return nil
}

// Get returns one delivery in the caller's tenant. Drivers only see their
// own deliveries.
func (s *Service) Get(ctx context.Context, ident shared.Identity, id int64) (*Delivery, error) {
	d, err := s.repo.Get(ctx, ident.TenantID, id)
	if err != nil {
		return nil, err
	}
	if ident.Role == shared.RoleDriver && (d.DriverID == nil || *d.DriverID != ident.UserID) {
		return nil, ErrDeliveryNotFound
	}
	return d, nil
}

// List returns tenant deliveries. For drivers the listing is forced to their
// own assignments.
func (s *Service) List(ctx context.Context, ident shared.Identity, f ListFilter) ([]Delivery, error) {
	if ident.Role == shared.RoleDriver {
		f.DriverID = ident.UserID
	}
	return s.repo.List(ctx, ident.TenantID, f)
}

func (s *Service) checkDriverOwnership(ident shared.Identity, d *Delivery) error {
	if ident.Role != shared.RoleDriver {
		return nil
	}
	if d.DriverID == nil || *d.DriverID != ident.UserID {
		return ErrNotAssignedDriver
	}
	return nil
}

func (s *Service) checkAssignments(ctx context.Context, tenantID int64, vehicleID, driverID *int64) error {
	if vehicleID != nil {
		ok, err := s.repo.VehicleExists(ctx, tenantID, *vehicleID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBadVehicleRef
		}
	}
	if driverID != nil {
		ok, err := s.repo.DriverExists(ctx, tenantID, *driverID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBadDriverRef
		}
	}
	return nil
}

// stampLifecycle applies the first-write-wins lifecycle timestamps. An
// explicitly supplied time is honoured only while the stamp is still empty;
// a set stamp is never overwritten.
func stampLifecycle(d *Delivery, status Status, startedAt, deliveredAt *time.Time, now time.Time) {
	if status == StatusInProgress && d.StartedAt == nil {
		if startedAt != nil {
			d.StartedAt = startedAt
		} else {
			t := now
			d.StartedAt = &t
		}
	}
	if status == StatusDelivered && d.DeliveredAt == nil {
		if deliveredAt != nil {
			d.DeliveredAt = deliveredAt
		} else {
			t := now
			d.DeliveredAt = &t
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, ident shared.Identity, action string, deliveryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: ident.TenantID,
		ActorID:  ident.UserID,
		Action:   action,
		Entity:   "delivery",
		EntityID: strconv.FormatInt(deliveryID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
