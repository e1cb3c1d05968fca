package billing

import (
	"fmt"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
)

// Domain errors wrap the transport sentinels so handlers map them to status
// codes with errors.Is alone.
var (
	ErrClientNotFound  = fmt.Errorf("client: %w", httpx.ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice: %w", httpx.ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment: %w", httpx.ErrNotFound)

	ErrAmountNotPositive = fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	ErrUnknownMethod     = fmt.Errorf("%w: unknown payment method", httpx.ErrValidation)
	ErrUnknownStatus     = fmt.Errorf("%w: unknown payment status", httpx.ErrValidation)

	// An invoice owned by another client is reported exactly like one that
	// does not exist, so payment requests cannot probe other clients' books.
	ErrClientMismatch = fmt.Errorf("invoice for client: %w", httpx.ErrNotFound)

	ErrInvoiceNotDraft    = fmt.Errorf("%w: only draft invoices can be sent", httpx.ErrConflict)
	ErrInvoiceHasPayments = fmt.Errorf("%w: invoice with payments cannot be deleted", httpx.ErrConflict)
	ErrDuplicatePayment   = fmt.Errorf("%w: payment already recorded for this idempotency key", httpx.ErrConflict)
)
