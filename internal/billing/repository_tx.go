package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type txRepository struct {
	tx pgx.Tx
}

// LockInvoice loads an invoice with a row lock so concurrent ledger
// recomputes for the same invoice serialise instead of clobbering each other.
func (t *txRepository) LockInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`
	return scanInvoice(t.tx.QueryRow(ctx, query, id, tenantID))
}

// InsertPayment stores a new payment and returns the stored row.
func (t *txRepository) InsertPayment(ctx context.Context, p Payment) (*Payment, error) {
	query := `
		INSERT INTO payments (
			tenant_id, client_id, invoice_id, number, amount, method, status,
			reference, notes, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + paymentColumns
	return scanPayment(t.tx.QueryRow(ctx, query,
		p.TenantID, p.ClientID, p.InvoiceID, p.Number, p.Amount, p.Method,
		p.Status, p.Reference, p.Notes, p.PaidAt, p.CreatedAt,
	))
}

// UpdatePaymentStatus mutates a payment's settlement status and, when given,
// its notes, returning the updated row.
func (t *txRepository) UpdatePaymentStatus(ctx context.Context, tenantID, id int64, status PaymentStatus, notes *string) (*Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, notes = COALESCE($2, notes), updated_at = $3
		WHERE id = $4 AND tenant_id = $5
		RETURNING ` + paymentColumns
	return scanPayment(t.tx.QueryRow(ctx, query, status, notes, time.Now(), id, tenantID))
}

// ListInvoicePayments returns every payment linked to an invoice.
func (t *txRepository) ListInvoicePayments(ctx context.Context, tenantID, invoiceID int64) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE invoice_id = $1 AND tenant_id = $2
		ORDER BY id`
	rows, err := t.tx.Query(ctx, query, invoiceID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("billing: list invoice payments: %w", err)
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

// ApplyAggregate persists a recomputed ledger state onto the invoice.
func (t *txRepository) ApplyAggregate(ctx context.Context, tenantID, invoiceID int64, agg Aggregate) error {
	query := `
		UPDATE invoices
		SET paid_amount = $1, payment_status = $2, status = $3, paid_at = $4, updated_at = $5
		WHERE id = $6 AND tenant_id = $7
	`
	tag, err := t.tx.Exec(ctx, query,
		agg.PaidAmount, agg.PaymentStatus, agg.InvoiceStatus, agg.PaidAt,
		time.Now(), invoiceID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("billing: apply aggregate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// NextPaymentNumber issues the next payment document number.
func (t *txRepository) NextPaymentNumber(ctx context.Context) (string, error) {
	var number string
	if err := t.tx.QueryRow(ctx, `SELECT generate_payment_number()`).Scan(&number); err != nil {
		return "", fmt.Errorf("billing: next payment number: %w", err)
	}
	return number, nil
}
