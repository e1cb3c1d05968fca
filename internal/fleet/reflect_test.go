package fleet

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

type memoryVehicleRepo struct {
	vehicles map[int64]*Vehicle
}

func newMemoryVehicleRepo() *memoryVehicleRepo {
	return &memoryVehicleRepo{vehicles: make(map[int64]*Vehicle)}
}

func (r *memoryVehicleRepo) add(tenantID, id int64, status Status) *Vehicle {
	v := &Vehicle{ID: id, TenantID: tenantID, Registration: "KPL-100", Status: status, CreatedAt: time.Now()}
	r.vehicles[id] = v
	return v
}

func (r *memoryVehicleRepo) Get(ctx context.Context, tenantID, id int64) (*Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return nil, ErrVehicleNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *memoryVehicleRepo) List(ctx context.Context, tenantID int64) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range r.vehicles {
		if v.TenantID == tenantID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *memoryVehicleRepo) SetStatus(ctx context.Context, tenantID, id int64, status Status) error {
	v, ok := r.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return ErrVehicleNotFound
	}
	v.Status = status
	return nil
}

func newFleetService(repo *memoryVehicleRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReflectDeliveryStatus(t *testing.T) {
	require.Equal(t, StatusInTransit, ReflectDeliveryStatus("IN_PROGRESS"))
	require.Equal(t, StatusAvailable, ReflectDeliveryStatus("DELIVERED"))
	require.Equal(t, StatusAvailable, ReflectDeliveryStatus("CANCELLED"))
	require.Equal(t, StatusAvailable, ReflectDeliveryStatus("PENDING"))
	require.Equal(t, StatusAvailable, ReflectDeliveryStatus("ASSIGNED"))
}

func TestApplyDeliveryStatusOverwritesMaintenance(t *testing.T) {
	repo := newMemoryVehicleRepo()
	repo.add(1, 5, StatusMaintenance)
	svc := newFleetService(repo)

	require.NoError(t, svc.ApplyDeliveryStatus(context.Background(), 1, 5, "IN_PROGRESS"))
	require.Equal(t, StatusInTransit, repo.vehicles[5].Status)

	require.NoError(t, svc.ApplyDeliveryStatus(context.Background(), 1, 5, "DELIVERED"))
	require.Equal(t, StatusAvailable, repo.vehicles[5].Status)
}

func TestApplyDeliveryStatusUnknownVehicle(t *testing.T) {
	repo := newMemoryVehicleRepo()
	svc := newFleetService(repo)

	err := svc.ApplyDeliveryStatus(context.Background(), 1, 99, "IN_PROGRESS")
	require.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestSetStatusValidatesAndScopes(t *testing.T) {
	repo := newMemoryVehicleRepo()
	repo.add(1, 5, StatusAvailable)
	repo.add(2, 6, StatusAvailable)
	svc := newFleetService(repo)
	ident := shared.Identity{TenantID: 1, UserID: 10, Role: shared.RoleManager}

	v, err := svc.SetStatus(context.Background(), ident, 5, StatusMaintenance)
	require.NoError(t, err)
	require.Equal(t, StatusMaintenance, v.Status)

	_, err = svc.SetStatus(context.Background(), ident, 5, Status("PARKED"))
	require.ErrorIs(t, err, ErrUnknownStatus)

	_, err = svc.SetStatus(context.Background(), ident, 6, StatusOutOfService)
	require.ErrorIs(t, err, ErrVehicleNotFound)
}
