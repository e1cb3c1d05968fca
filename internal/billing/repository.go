package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/db"
)

// Repository defines data access for billing. Every lookup is tenant scoped;
// a row owned by another tenant reads the same as a missing row.
type Repository interface {
	GetClient(ctx context.Context, tenantID, id int64) (*Client, error)
	GetInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error)
	GetPayment(ctx context.Context, tenantID, id int64) (*Payment, error)
	ListInvoices(ctx context.Context, tenantID int64, f ListFilter) ([]Invoice, error)
	ListPayments(ctx context.Context, tenantID int64, f ListFilter) ([]Payment, error)
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	MarkInvoiceSent(ctx context.Context, tenantID, id int64, issuedAt time.Time) error
	CountInvoicePayments(ctx context.Context, tenantID, invoiceID int64) (int64, error)
	DeleteInvoice(ctx context.Context, tenantID, id int64) error
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)

	// WithTx runs fn against a transaction-scoped repository. The invoice
	// row lock taken inside serialises concurrent ledger recomputes.
	WithTx(ctx context.Context, fn func(TxRepository) error) error
}

// TxRepository is the transaction-scoped slice of the repository used by the
// payment write paths.
type TxRepository interface {
	LockInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error)
	InsertPayment(ctx context.Context, p Payment) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, tenantID, id int64, status PaymentStatus, notes *string) (*Payment, error)
	ListInvoicePayments(ctx context.Context, tenantID, invoiceID int64) ([]Payment, error)
	ApplyAggregate(ctx context.Context, tenantID, invoiceID int64, agg Aggregate) error
	NextPaymentNumber(ctx context.Context) (string, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so queries can be
// shared between the pool-backed and transaction-backed repositories.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds the PostgreSQL-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const invoiceColumns = `
	id, tenant_id, client_id, number, subtotal, tax_amount, discount_amount,
	total, paid_amount, payment_status, status, due_at, issued_at, paid_at,
	notes, created_at, updated_at
`

const paymentColumns = `
	id, tenant_id, client_id, invoice_id, number, amount, method, status,
	reference, notes, paid_at, created_at, updated_at
`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.ClientID, &inv.Number, &inv.Subtotal,
		&inv.TaxAmount, &inv.DiscountAmount, &inv.Total, &inv.PaidAmount,
		&inv.PaymentStatus, &inv.Status, &inv.DueAt, &inv.IssuedAt,
		&inv.PaidAt, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("billing: scan invoice: %w", err)
	}
	return &inv, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.TenantID, &p.ClientID, &p.InvoiceID, &p.Number, &p.Amount,
		&p.Method, &p.Status, &p.Reference, &p.Notes, &p.PaidAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("billing: scan payment: %w", err)
	}
	return &p, nil
}

// GetClient returns an active client in the tenant.
func (r *PGRepository) GetClient(ctx context.Context, tenantID, id int64) (*Client, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, is_active
		FROM clients
		WHERE id = $1 AND tenant_id = $2
	`
	var c Client
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("billing: get client: %w", err)
	}
	return &c, nil
}

// GetInvoice returns an invoice in the tenant.
func (r *PGRepository) GetInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND tenant_id = $2`
	return scanInvoice(r.pool.QueryRow(ctx, query, id, tenantID))
}

// GetPayment returns a payment in the tenant.
func (r *PGRepository) GetPayment(ctx context.Context, tenantID, id int64) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND tenant_id = $2`
	return scanPayment(r.pool.QueryRow(ctx, query, id, tenantID))
}

// ListInvoices returns tenant invoices, newest first.
func (r *PGRepository) ListInvoices(ctx context.Context, tenantID int64, f ListFilter) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.ClientID > 0 {
		args = append(args, f.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, strings.ToUpper(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	query += limitOffset(&args, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// ListPayments returns tenant payments, newest first.
func (r *PGRepository) ListPayments(ctx context.Context, tenantID int64, f ListFilter) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1`
	args := []any{tenantID}
	if f.ClientID > 0 {
		args = append(args, f.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if f.InvoiceID > 0 {
		args = append(args, f.InvoiceID)
		query += fmt.Sprintf(" AND invoice_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, strings.ToUpper(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY paid_at DESC, id DESC"
	query += limitOffset(&args, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func limitOffset(args *[]any, f ListFilter) string {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	*args = append(*args, limit)
	clause := fmt.Sprintf(" LIMIT $%d", len(*args))
	if f.Offset > 0 {
		*args = append(*args, f.Offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(*args))
	}
	return clause
}

// CreateInvoice inserts a draft invoice and returns the stored row.
func (r *PGRepository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	query := `
		INSERT INTO invoices (
			tenant_id, client_id, number, subtotal, tax_amount, discount_amount,
			total, paid_amount, payment_status, status, due_at, notes,
			created_at, updated_at
		) VALUES ($1, $2, generate_invoice_number($1), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + invoiceColumns
	return scanInvoice(r.pool.QueryRow(ctx, query,
		inv.TenantID, inv.ClientID, inv.Subtotal, inv.TaxAmount,
		inv.DiscountAmount, inv.Total, inv.PaidAmount, inv.PaymentStatus,
		inv.Status, inv.DueAt, inv.Notes, inv.CreatedAt,
	))
}

// MarkInvoiceSent flips a draft invoice to SENT and stamps issuance.
func (r *PGRepository) MarkInvoiceSent(ctx context.Context, tenantID, id int64, issuedAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = $1, issued_at = $2, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5
	`
	tag, err := r.pool.Exec(ctx, query, InvoiceStatusSent, issuedAt, id, tenantID, InvoiceStatusDraft)
	if err != nil {
		return fmt.Errorf("billing: mark invoice sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotDraft
	}
	return nil
}

// CountInvoicePayments counts payments linked to an invoice.
func (r *PGRepository) CountInvoicePayments(ctx context.Context, tenantID, invoiceID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE invoice_id = $1 AND tenant_id = $2`,
		invoiceID, tenantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("billing: count invoice payments: %w", err)
	}
	return n, nil
}

// DeleteInvoice removes an invoice in the tenant.
func (r *PGRepository) DeleteInvoice(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM invoices WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("billing: delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// MarkOverdueInvoices flips SENT invoices past their due date to OVERDUE
// across all tenants. Used by the scheduled overdue scan.
func (r *PGRepository) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = $2
		WHERE status = $3 AND due_at < $2
	`
	tag, err := r.pool.Exec(ctx, query, InvoiceStatusOverdue, asOf, InvoiceStatusSent)
	if err != nil {
		return 0, fmt.Errorf("billing: mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// WithTx runs fn against a transaction-scoped repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}
