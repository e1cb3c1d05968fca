package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMode selects which payments count towards an invoice and how the
// invoice document status reacts to full coverage.
type LedgerMode int

const (
	// LedgerModeCreation is used when a new payment is recorded. Every
	// payment linked to the invoice counts, whatever its settlement status,
	// and the invoice document status only ever moves forward to PAID.
	LedgerModeCreation LedgerMode = iota

	// LedgerModeSettlement is used when an existing payment changes
	// settlement status. Only payments marked PAID count, and the invoice
	// document status is recomputed both ways: PAID when covered, SENT when
	// coverage is lost again.
	LedgerModeSettlement
)

// Aggregate is the recomputed ledger state for one invoice.
type Aggregate struct {
	PaidAmount    decimal.Decimal
	PaymentStatus PaymentCoverage
	InvoiceStatus InvoiceStatus
	PaidAt        *time.Time
}

// Recompute derives an invoice's paid amount, coverage and document status
// from its payments. It is a pure function: callers load the payment set,
// pick the mode, and persist the returned aggregate.
func Recompute(inv Invoice, payments []Payment, mode LedgerMode, now time.Time) Aggregate {
	paid := decimal.Zero
	for _, p := range payments {
		if mode == LedgerModeSettlement && p.Status != PaymentStatusPaid {
			continue
		}
		paid = paid.Add(p.Amount)
	}

	agg := Aggregate{PaidAmount: paid}
	covered := !paid.IsZero() && paid.GreaterThanOrEqual(inv.Total)

	switch {
	case paid.IsZero():
		agg.PaymentStatus = CoveragePending
	case covered:
		agg.PaymentStatus = CoveragePaid
	default:
		agg.PaymentStatus = CoveragePartial
	}

	switch mode {
	case LedgerModeCreation:
		if covered {
			agg.InvoiceStatus = InvoiceStatusPaid
			agg.PaidAt = firstPaidAt(inv.PaidAt, now)
		} else {
			agg.InvoiceStatus = inv.Status
			agg.PaidAt = inv.PaidAt
		}
	case LedgerModeSettlement:
		if covered {
			agg.InvoiceStatus = InvoiceStatusPaid
			agg.PaidAt = firstPaidAt(inv.PaidAt, now)
		} else {
			agg.InvoiceStatus = InvoiceStatusSent
			agg.PaidAt = nil
		}
	}
	return agg
}

// firstPaidAt keeps an existing settlement timestamp and stamps now otherwise.
func firstPaidAt(existing *time.Time, now time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	t := now
	return &t
}
