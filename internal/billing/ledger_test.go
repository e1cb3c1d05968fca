package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInvoice(total string, status InvoiceStatus) Invoice {
	return Invoice{
		ID:       1,
		TenantID: 1,
		ClientID: 7,
		Total:    dec(total),
		Status:   status,
	}
}

func paymentOf(amount string, status PaymentStatus) Payment {
	return Payment{Amount: dec(amount), Status: status}
}

func TestRecomputeIsStableOnReplay(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)
	payments := []Payment{
		paymentOf("40", PaymentStatusPaid),
		paymentOf("60", PaymentStatusPaid),
	}

	first := Recompute(inv, payments, LedgerModeSettlement, now)

	inv.PaidAmount = first.PaidAmount
	inv.PaymentStatus = first.PaymentStatus
	inv.Status = first.InvoiceStatus
	inv.PaidAt = first.PaidAt

	second := Recompute(inv, payments, LedgerModeSettlement, now.Add(time.Hour))

	require.True(t, second.PaidAmount.Equal(first.PaidAmount))
	require.Equal(t, first.PaymentStatus, second.PaymentStatus)
	require.Equal(t, first.InvoiceStatus, second.InvoiceStatus)
	require.Equal(t, first.PaidAt, second.PaidAt)
}

func TestRecomputeNoPaymentsIsPending(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)

	agg := Recompute(inv, nil, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.IsZero())
	require.Equal(t, CoveragePending, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, agg.InvoiceStatus)
	require.Nil(t, agg.PaidAt)
}

func TestRecomputePartialCoverage(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)
	payments := []Payment{paymentOf("40", PaymentStatusPaid)}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.Equal(dec("40")))
	require.Equal(t, CoveragePartial, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, agg.InvoiceStatus)
	require.Nil(t, agg.PaidAt)
}

func TestRecomputeExactCoverageMarksPaid(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)
	payments := []Payment{
		paymentOf("60", PaymentStatusPaid),
		paymentOf("40", PaymentStatusPaid),
	}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.Equal(dec("100")))
	require.Equal(t, CoveragePaid, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusPaid, agg.InvoiceStatus)
	require.NotNil(t, agg.PaidAt)
	require.Equal(t, now, *agg.PaidAt)
}

func TestRecomputeOverpaymentIsStillPaid(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)
	payments := []Payment{paymentOf("150", PaymentStatusPaid)}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.Equal(dec("150")))
	require.Equal(t, CoveragePaid, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusPaid, agg.InvoiceStatus)
}

func TestRecomputeCreationCountsUnsettledPayments(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusSent)
	payments := []Payment{
		paymentOf("70", PaymentStatusPaid),
		paymentOf("30", PaymentStatusPending),
	}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.Equal(dec("100")))
	require.Equal(t, CoveragePaid, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusPaid, agg.InvoiceStatus)
}

func TestRecomputeSettlementIgnoresUnsettledPayments(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusPaid)
	payments := []Payment{
		paymentOf("70", PaymentStatusPaid),
		paymentOf("30", PaymentStatusFailed),
	}

	agg := Recompute(inv, payments, LedgerModeSettlement, now)

	require.True(t, agg.PaidAmount.Equal(dec("70")))
	require.Equal(t, CoveragePartial, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, agg.InvoiceStatus)
	require.Nil(t, agg.PaidAt)
}

func TestRecomputeSettlementRevertsPaidInvoice(t *testing.T) {
	now := time.Now()
	paidAt := now.Add(-time.Hour)
	inv := testInvoice("100", InvoiceStatusPaid)
	inv.PaidAt = &paidAt
	payments := []Payment{paymentOf("100", PaymentStatusRefunded)}

	agg := Recompute(inv, payments, LedgerModeSettlement, now)

	require.True(t, agg.PaidAmount.IsZero())
	require.Equal(t, CoveragePending, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, agg.InvoiceStatus)
	require.Nil(t, agg.PaidAt)
}

func TestRecomputeKeepsExistingPaidAt(t *testing.T) {
	now := time.Now()
	first := now.Add(-48 * time.Hour)
	inv := testInvoice("100", InvoiceStatusPaid)
	inv.PaidAt = &first
	payments := []Payment{paymentOf("100", PaymentStatusPaid)}

	creation := Recompute(inv, payments, LedgerModeCreation, now)
	settlement := Recompute(inv, payments, LedgerModeSettlement, now)

	require.Equal(t, first, *creation.PaidAt)
	require.Equal(t, first, *settlement.PaidAt)
}

func TestRecomputeCreationKeepsOverdueWhenPartial(t *testing.T) {
	now := time.Now()
	inv := testInvoice("100", InvoiceStatusOverdue)
	payments := []Payment{paymentOf("10", PaymentStatusPaid)}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.Equal(t, InvoiceStatusOverdue, agg.InvoiceStatus)
}

func TestRecomputeZeroTotalWithoutPaymentsStaysPending(t *testing.T) {
	now := time.Now()
	inv := testInvoice("0", InvoiceStatusSent)

	agg := Recompute(inv, nil, LedgerModeCreation, now)

	require.Equal(t, CoveragePending, agg.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, agg.InvoiceStatus)
}

func TestRecomputeDecimalFractionsAreExact(t *testing.T) {
	now := time.Now()
	inv := testInvoice("0.3", InvoiceStatusSent)
	payments := []Payment{
		paymentOf("0.1", PaymentStatusPaid),
		paymentOf("0.2", PaymentStatusPaid),
	}

	agg := Recompute(inv, payments, LedgerModeCreation, now)

	require.True(t, agg.PaidAmount.Equal(dec("0.3")))
	require.Equal(t, CoveragePaid, agg.PaymentStatus)
}
