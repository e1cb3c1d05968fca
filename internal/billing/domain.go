// Package billing owns invoices, payments and the ledger rules that keep an
// invoice's paid amount and payment status consistent with its payments.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle status of an invoice document.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentCoverage classifies how much of an invoice's total has been paid.
type PaymentCoverage string

const (
	CoveragePending PaymentCoverage = "PENDING"
	CoveragePartial PaymentCoverage = "PARTIAL"
	CoveragePaid    PaymentCoverage = "PAID"
)

// PaymentStatus is the settlement status of an individual payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	MethodCard         PaymentMethod = "CARD"
	MethodCheque       PaymentMethod = "CHEQUE"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileMoney, MethodCard, MethodCheque:
		return true
	}
	return false
}

// Client is the billable party an invoice or payment belongs to.
type Client struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenantId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"isActive"`
}

// Invoice is a billing document issued to a client.
type Invoice struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenantId"`
	ClientID       int64           `json:"clientId"`
	Number         string          `json:"number"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	PaymentStatus  PaymentCoverage `json:"paymentStatus"`
	Status         InvoiceStatus   `json:"status"`
	DueAt          time.Time       `json:"dueAt"`
	IssuedAt       *time.Time      `json:"issuedAt,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ClientSummary is the client slice attached to payment responses.
type ClientSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InvoiceSummary is the invoice slice attached to payment responses,
// reflecting the aggregate state after the payment was applied.
type InvoiceSummary struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PaymentStatus PaymentCoverage `json:"paymentStatus"`
	Status        InvoiceStatus   `json:"status"`
}

// PaymentDetail is a payment with its client and invoice context.
type PaymentDetail struct {
	Payment
	Client  ClientSummary   `json:"client"`
	Invoice *InvoiceSummary `json:"invoice,omitempty"`
}

// Payment is money received from a client, optionally against an invoice.
type Payment struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenantId"`
	ClientID  int64           `json:"clientId"`
	InvoiceID *int64          `json:"invoiceId,omitempty"`
	Number    string          `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Status    PaymentStatus   `json:"status"`
	Reference string          `json:"reference,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	PaidAt    time.Time       `json:"paidAt"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
