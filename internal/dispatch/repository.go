package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for deliveries. Lookups are tenant scoped,
// including the referential checks against clients, vehicles and drivers.
type Repository interface {
	Get(ctx context.Context, tenantID, id int64) (*Delivery, error)
	List(ctx context.Context, tenantID int64, f ListFilter) ([]Delivery, error)
	Create(ctx context.Context, d Delivery) (*Delivery, error)
	Update(ctx context.Context, d Delivery) (*Delivery, error)
	Delete(ctx context.Context, tenantID, id int64) error

	ClientExists(ctx context.Context, tenantID, id int64) (bool, error)
	VehicleExists(ctx context.Context, tenantID, id int64) (bool, error)
	DriverExists(ctx context.Context, tenantID, userID int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds the PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const deliveryColumns = `
	id, tenant_id, client_id, vehicle_id, driver_id, status,
	pickup_address, delivery_address, pickup_at, deliver_by,
	started_at, delivered_at, estimated_price, actual_price, notes,
	created_at, updated_at
`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	var d Delivery
	err := row.Scan(
		&d.ID, &d.TenantID, &d.ClientID, &d.VehicleID, &d.DriverID, &d.Status,
		&d.PickupAddress, &d.DeliveryAddress, &d.PickupAt, &d.DeliverBy,
		&d.StartedAt, &d.DeliveredAt, &d.EstimatedPrice, &d.ActualPrice,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch: scan delivery: %w", err)
	}
	return &d, nil
}

// Get returns a delivery in the tenant.
func (r *PGRepository) Get(ctx context.Context, tenantID, id int64) (*Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1 AND tenant_id = $2`
	return scanDelivery(r.pool.QueryRow(ctx, query, id, tenantID))
}

// List returns tenant deliveries, newest first.
func (r *PGRepository) List(ctx context.Context, tenantID int64, f ListFilter) ([]Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.ClientID > 0 {
		args = append(args, f.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if f.DriverID > 0 {
		args = append(args, f.DriverID)
		query += fmt.Sprintf(" AND driver_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, strings.ToUpper(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dispatch: list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Create inserts a delivery and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, d Delivery) (*Delivery, error) {
	query := `
		INSERT INTO deliveries (
			tenant_id, client_id, vehicle_id, driver_id, status,
			pickup_address, delivery_address, pickup_at, deliver_by,
			estimated_price, actual_price, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING ` + deliveryColumns
	return scanDelivery(r.pool.QueryRow(ctx, query,
		d.TenantID, d.ClientID, d.VehicleID, d.DriverID, d.Status,
		d.PickupAddress, d.DeliveryAddress, d.PickupAt, d.DeliverBy,
		d.EstimatedPrice, d.ActualPrice, d.Notes, d.CreatedAt,
	))
}

// Update persists the full mutable state of a delivery.
func (r *PGRepository) Update(ctx context.Context, d Delivery) (*Delivery, error) {
	query := `
		UPDATE deliveries
		SET client_id = $1, vehicle_id = $2, driver_id = $3, status = $4,
			pickup_address = $5, delivery_address = $6, pickup_at = $7,
			deliver_by = $8, started_at = $9, delivered_at = $10,
			estimated_price = $11, actual_price = $12, notes = $13,
			updated_at = $14
		WHERE id = $15 AND tenant_id = $16
		RETURNING ` + deliveryColumns
	return scanDelivery(r.pool.QueryRow(ctx, query,
		d.ClientID, d.VehicleID, d.DriverID, d.Status,
		d.PickupAddress, d.DeliveryAddress, d.PickupAt, d.DeliverBy,
		d.StartedAt, d.DeliveredAt, d.EstimatedPrice, d.ActualPrice,
		d.Notes, time.Now(), d.ID, d.TenantID,
	))
}

// Delete removes a delivery in the tenant.
func (r *PGRepository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM deliveries WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("dispatch: delete delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// ClientExists reports whether the client exists in the tenant.
func (r *PGRepository) ClientExists(ctx context.Context, tenantID, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM clients WHERE id = $1 AND tenant_id = $2`, id, tenantID)
}

// VehicleExists reports whether the vehicle exists in the tenant.
func (r *PGRepository) VehicleExists(ctx context.Context, tenantID, id int64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM vehicles WHERE id = $1 AND tenant_id = $2`, id, tenantID)
}

// DriverExists reports whether the user exists in the tenant with the DRIVER
// role.
func (r *PGRepository) DriverExists(ctx context.Context, tenantID, userID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM users WHERE id = $1 AND tenant_id = $2 AND role = 'DRIVER' AND is_active`,
		userID, tenantID)
}

func (r *PGRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dispatch: existence check: %w", err)
	}
	return true, nil
}
