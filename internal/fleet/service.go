package fleet

import (
	"context"
	"log/slog"

	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// Service handles vehicle business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds the fleet service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns one vehicle in the caller's tenant.
func (s *Service) Get(ctx context.Context, ident shared.Identity, id int64) (*Vehicle, error) {
	return s.repo.Get(ctx, ident.TenantID, id)
}

// List returns the caller's tenant vehicles.
func (s *Service) List(ctx context.Context, ident shared.Identity) ([]Vehicle, error) {
	return s.repo.List(ctx, ident.TenantID)
}

// SetStatus manually overrides a vehicle's status, typically to park it in
// MAINTENANCE or mark it OUT_OF_SERVICE.
func (s *Service) SetStatus(ctx context.Context, ident shared.Identity, id int64, status Status) (*Vehicle, error) {
	if !status.IsValid() {
		return nil, ErrUnknownStatus
	}
	if err := s.repo.SetStatus(ctx, ident.TenantID, id, status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, ident.TenantID, id)
}

// ApplyDeliveryStatus reflects a delivery's lifecycle status onto its
// assigned vehicle. Called by the dispatch service after every delivery
// status transition; the write is unconditional.
func (s *Service) ApplyDeliveryStatus(ctx context.Context, tenantID, vehicleID int64, deliveryStatus string) error {
	status := ReflectDeliveryStatus(deliveryStatus)
	if err := s.repo.SetStatus(ctx, tenantID, vehicleID, status); err != nil {
		return err
	}
	s.logger.Debug("vehicle status reflected",
		slog.Int64("vehicle_id", vehicleID),
		slog.String("delivery_status", deliveryStatus),
		slog.String("vehicle_status", string(status)))
	return nil
}
