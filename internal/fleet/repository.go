package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for vehicles. Lookups are tenant scoped.
type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Vehicle, error)
	List(ctx context.Context, tenantID int64) ([]Vehicle, error)
	SetStatus(ctx context.Context, tenantID, id int64, status Status) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds the PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const vehicleColumns = `
	id, tenant_id, registration, make, model, capacity_kg, status, notes,
	created_at, updated_at
`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.TenantID, &v.Registration, &v.Make, &v.Model, &v.CapacityKg,
		&v.Status, &v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fleet: scan vehicle: %w", err)
	}
	return &v, nil
}

// Get returns a vehicle in the tenant.
func (r *PGRepository) Get(ctx context.Context, tenantID, id int64) (*Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 AND tenant_id = $2`
	return scanVehicle(r.pool.QueryRow(ctx, query, id, tenantID))
}

// List returns tenant vehicles ordered by registration.
func (r *PGRepository) List(ctx context.Context, tenantID int64) ([]Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE tenant_id = $1 ORDER BY registration`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fleet: list vehicles: %w", err)
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// SetStatus overwrites a vehicle's status.
func (r *PGRepository) SetStatus(ctx context.Context, tenantID, id int64, status Status) error {
	query := `UPDATE vehicles SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`
	tag, err := r.pool.Exec(ctx, query, status, time.Now(), id, tenantID)
	if err != nil {
		return fmt.Errorf("fleet: set vehicle status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
