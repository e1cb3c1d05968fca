package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordPaymentInput is the request body for recording a payment. Amount and
// method are checked in the service because their rules go beyond struct tags.
type RecordPaymentInput struct {
	ClientID  int64           `json:"clientId" validate:"required,gt=0"`
	InvoiceID *int64          `json:"invoiceId" validate:"omitempty,gt=0"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method" validate:"required"`
	Reference string          `json:"reference" validate:"max=120"`
	Notes     string          `json:"notes" validate:"max=2000"`
	PaidAt    *time.Time      `json:"paidAt"`
}

// UpdatePaymentStatusInput is the request body for settling a payment.
type UpdatePaymentStatusInput struct {
	Status PaymentStatus `json:"status" validate:"required"`
	Notes  *string       `json:"notes" validate:"omitempty,max=2000"`
}

// CreateInvoiceInput is the request body for creating a draft invoice.
type CreateInvoiceInput struct {
	ClientID       int64           `json:"clientId" validate:"required,gt=0"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DueAt          time.Time       `json:"dueAt" validate:"required"`
	Notes          string          `json:"notes" validate:"max=2000"`
}

// ListFilter narrows invoice and payment listings.
type ListFilter struct {
	ClientID  int64
	InvoiceID int64
	Status    string
	Limit     int
	Offset    int
}
