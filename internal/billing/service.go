package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

// Notifier dispatches follow-up work after a billing mutation. Implemented by
// the background job client; a nil notifier disables dispatch.
type Notifier interface {
	PaymentRecorded(ctx context.Context, tenantID, paymentID int64) error
}

// Service handles billing business logic.
type Service struct {
	repo     Repository
	idem     *shared.IdempotencyStore
	audit    *shared.AuditLogger
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds the billing service.
func NewService(repo Repository, idem *shared.IdempotencyStore, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, idem: idem, audit: audit, notifier: notifier, logger: logger}
}

// RecordPayment stores a payment and, when it targets an invoice, recomputes
// that invoice's ledger inside the same transaction. At recording time every
// linked payment counts towards the paid amount, and the invoice document
// status only moves forward to PAID, never backwards.
func (s *Service) RecordPayment(ctx context.Context, ident shared.Identity, in RecordPaymentInput, idemKey string) (*PaymentDetail, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if !in.Method.IsValid() {
		return nil, ErrUnknownMethod
	}
	client, err := s.repo.GetClient(ctx, ident.TenantID, in.ClientID)
	if err != nil {
		return nil, err
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, ident.TenantID, idemKey, shared.IdempotencyModulePayments); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, ErrDuplicatePayment
			}
			return nil, err
		}
	}

	now := time.Now()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}

	var stored *Payment
	var invoiceSummary *InvoiceSummary
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		var invoice *Invoice
		if in.InvoiceID != nil {
			var err error
			invoice, err = tx.LockInvoice(ctx, ident.TenantID, *in.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.ClientID != in.ClientID {
				return ErrClientMismatch
			}
		}

		number, err := tx.NextPaymentNumber(ctx)
		if err != nil {
			return err
		}

		stored, err = tx.InsertPayment(ctx, Payment{
			TenantID:  ident.TenantID,
			ClientID:  in.ClientID,
			InvoiceID: in.InvoiceID,
			Number:    number,
			Amount:    in.Amount,
			Method:    in.Method,
			Status:    PaymentStatusPaid,
			Reference: in.Reference,
			Notes:     in.Notes,
			PaidAt:    paidAt,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		if invoice == nil {
			return nil
		}
		payments, err := tx.ListInvoicePayments(ctx, ident.TenantID, invoice.ID)
		if err != nil {
			return err
		}
		agg := Recompute(*invoice, payments, LedgerModeCreation, now)
		if err := tx.ApplyAggregate(ctx, ident.TenantID, invoice.ID, agg); err != nil {
			return err
		}
		invoiceSummary = &InvoiceSummary{
			ID:            invoice.ID,
			Number:        invoice.Number,
			Total:         invoice.Total,
			PaidAmount:    agg.PaidAmount,
			PaymentStatus: agg.PaymentStatus,
			Status:        agg.InvoiceStatus,
		}
		return nil
	})
	if err != nil {
		if idemKey != "" && s.idem != nil {
			if derr := s.idem.Delete(ctx, ident.TenantID, idemKey); derr != nil {
				s.logger.Warn("idempotency key rollback failed", "key", idemKey, "error", derr)
			}
		}
		return nil, err
	}

	s.recordAudit(ctx, ident, "payment.recorded", "payment", stored.ID, map[string]any{
		"amount": stored.Amount.String(),
		"method": string(stored.Method),
	})
	if s.notifier != nil {
		if err := s.notifier.PaymentRecorded(ctx, ident.TenantID, stored.ID); err != nil {
			s.logger.Warn("payment receipt dispatch failed", "payment_id", stored.ID, "error", err)
		}
	}
	return &PaymentDetail{
		Payment: *stored,
		Client:  ClientSummary{ID: client.ID, Name: client.Name},
		Invoice: invoiceSummary,
	}, nil
}

// UpdatePaymentStatus mutates a payment's settlement status. When the payment
// targets an invoice the ledger is recomputed from scratch counting only
// payments that are PAID, so failing or refunding a payment pulls the invoice
// back to SENT and clears its settlement timestamp.
func (s *Service) UpdatePaymentStatus(ctx context.Context, ident shared.Identity, paymentID int64, in UpdatePaymentStatusInput) (*Payment, error) {
	if !in.Status.IsValid() {
		return nil, ErrUnknownStatus
	}

	current, err := s.repo.GetPayment(ctx, ident.TenantID, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var updated *Payment
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		var invoice *Invoice
		if current.InvoiceID != nil {
			var err error
			invoice, err = tx.LockInvoice(ctx, ident.TenantID, *current.InvoiceID)
			if err != nil {
				return err
			}
		}

		updated, err = tx.UpdatePaymentStatus(ctx, ident.TenantID, paymentID, in.Status, in.Notes)
		if err != nil {
			return err
		}

		if invoice == nil {
			return nil
		}
		payments, err := tx.ListInvoicePayments(ctx, ident.TenantID, invoice.ID)
		if err != nil {
			return err
		}
		agg := Recompute(*invoice, payments, LedgerModeSettlement, now)
		return tx.ApplyAggregate(ctx, ident.TenantID, invoice.ID, agg)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, ident, "payment.status_changed", "payment", updated.ID, map[string]any{
		"from": string(current.Status),
		"to":   string(updated.Status),
	})
	return updated, nil
}

// CreateInvoice stores a draft invoice for a client.
func (s *Service) CreateInvoice(ctx context.Context, ident shared.Identity, in CreateInvoiceInput) (*Invoice, error) {
	if in.Subtotal.IsNegative() || in.TaxAmount.IsNegative() || in.DiscountAmount.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", httpx.ErrValidation)
	}
	total := in.Subtotal.Add(in.TaxAmount).Sub(in.DiscountAmount)
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds invoice total", httpx.ErrValidation)
	}
	if _, err := s.repo.GetClient(ctx, ident.TenantID, in.ClientID); err != nil {
		return nil, err
	}

	inv, err := s.repo.CreateInvoice(ctx, Invoice{
		TenantID:       ident.TenantID,
		ClientID:       in.ClientID,
		Subtotal:       in.Subtotal,
		TaxAmount:      in.TaxAmount,
		DiscountAmount: in.DiscountAmount,
		Total:          total,
		PaidAmount:     decimal.Zero,
		PaymentStatus:  CoveragePending,
		Status:         InvoiceStatusDraft,
		DueAt:          in.DueAt,
		Notes:          in.Notes,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, ident, "invoice.created", "invoice", inv.ID, map[string]any{"total": inv.Total.String()})
	return inv, nil
}

// SendInvoice issues a draft invoice to its client.
func (s *Service) SendInvoice(ctx context.Context, ident shared.Identity, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, ident.TenantID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}
	if err := s.repo.MarkInvoiceSent(ctx, ident.TenantID, id, time.Now()); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, ident, "invoice.sent", "invoice", id, nil)
	return s.repo.GetInvoice(ctx, ident.TenantID, id)
}

// DeleteInvoice removes an invoice that has no payments against it.
func (s *Service) DeleteInvoice(ctx context.Context, ident shared.Identity, id int64) error {
	if _, err := s.repo.GetInvoice(ctx, ident.TenantID, id); err != nil {
		return err
	}
	n, err := s.repo.CountInvoicePayments(ctx, ident.TenantID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrInvoiceHasPayments
	}
	if err := s.repo.DeleteInvoice(ctx, ident.TenantID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, ident, "invoice.deleted", "invoice", id, nil)
	return nil
}

// GetInvoice returns one invoice in the caller's tenant.
func (s *Service) GetInvoice(ctx context.Context, ident shared.Identity, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, ident.TenantID, id)
}

// GetPayment returns one payment in the caller's tenant.
func (s *Service) GetPayment(ctx context.Context, ident shared.Identity, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, ident.TenantID, id)
}

// ListInvoices returns tenant invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, ident shared.Identity, f ListFilter) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, ident.TenantID, f)
}

// ListPayments returns tenant payments matching the filter.
func (s *Service) ListPayments(ctx context.Context, ident shared.Identity, f ListFilter) ([]Payment, error) {
	return s.repo.ListPayments(ctx, ident.TenantID, f)
}

// ReceiptData is what the payment receipt mail needs about a payment.
type ReceiptData struct {
	Payment       Payment
	ClientName    string
	ClientEmail   string
	InvoiceNumber string
}

// ReceiptData loads the receipt context for a recorded payment. Used by the
// background receipt job, which runs outside a user session.
func (s *Service) ReceiptData(ctx context.Context, tenantID, paymentID int64) (*ReceiptData, error) {
	payment, err := s.repo.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetClient(ctx, tenantID, payment.ClientID)
	if err != nil {
		return nil, err
	}
	data := &ReceiptData{
		Payment:     *payment,
		ClientName:  client.Name,
		ClientEmail: client.Email,
	}
	if payment.InvoiceID != nil {
		invoice, err := s.repo.GetInvoice(ctx, tenantID, *payment.InvoiceID)
		if err != nil {
			return nil, err
		}
		data.InvoiceNumber = invoice.Number
	}
	return data, nil
}

// MarkOverdue flips sent invoices past their due date to OVERDUE and returns
// how many were touched. Runs across tenants from the scheduler.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return s.repo.MarkOverdueInvoices(ctx, asOf)
}

func (s *Service) recordAudit(ctx context.Context, ident shared.Identity, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: ident.TenantID,
		ActorID:  ident.UserID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
