package billing

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fleetline-erp/fleetline-erp/internal/platform/httpx"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
)

type memoryBillingRepo struct {
	clients        map[int64]*Client
	invoices       map[int64]*Invoice
	payments       map[int64]*Payment
	nextInvoiceID  int64
	nextPaymentID  int64
	invoiceCounter int64
	paymentCounter int64
}

func newMemoryBillingRepo() *memoryBillingRepo {
	return &memoryBillingRepo{
		clients:  make(map[int64]*Client),
		invoices: make(map[int64]*Invoice),
		payments: make(map[int64]*Payment),
	}
}

func (r *memoryBillingRepo) addClient(tenantID, id int64) {
	r.clients[id] = &Client{ID: id, TenantID: tenantID, Name: "Client", IsActive: true}
}

func (r *memoryBillingRepo) addInvoice(tenantID, clientID int64, total string, status InvoiceStatus) *Invoice {
	r.nextInvoiceID++
	inv := &Invoice{
		ID:            r.nextInvoiceID,
		TenantID:      tenantID,
		ClientID:      clientID,
		Number:        "INV-TEST",
		Total:         decimal.RequireFromString(total),
		PaidAmount:    decimal.Zero,
		PaymentStatus: CoveragePending,
		Status:        status,
		DueAt:         time.Now().Add(14 * 24 * time.Hour),
	}
	r.invoices[inv.ID] = inv
	return inv
}

func (r *memoryBillingRepo) GetClient(ctx context.Context, tenantID, id int64) (*Client, error) {
	c, ok := r.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func (r *memoryBillingRepo) GetInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryBillingRepo) GetPayment(ctx context.Context, tenantID, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryBillingRepo) ListInvoices(ctx context.Context, tenantID int64, f ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryBillingRepo) ListPayments(ctx context.Context, tenantID int64, f ListFilter) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryBillingRepo) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	r.nextInvoiceID++
	r.invoiceCounter++
	inv.ID = r.nextInvoiceID
	inv.Number = "INV-TEST-" + string(rune('0'+r.invoiceCounter))
	r.invoices[inv.ID] = &inv
	copied := inv
	return &copied, nil
}

func (r *memoryBillingRepo) MarkInvoiceSent(ctx context.Context, tenantID, id int64, issuedAt time.Time) error {
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID || inv.Status != InvoiceStatusDraft {
		return ErrInvoiceNotDraft
	}
	inv.Status = InvoiceStatusSent
	inv.IssuedAt = &issuedAt
	return nil
}

func (r *memoryBillingRepo) CountInvoicePayments(ctx context.Context, tenantID, invoiceID int64) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			n++
		}
	}
	return n, nil
}

func (r *memoryBillingRepo) DeleteInvoice(ctx context.Context, tenantID, id int64) error {
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return ErrInvoiceNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *memoryBillingRepo) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range r.invoices {
		if inv.Status == InvoiceStatusSent && inv.DueAt.Before(asOf) {
			inv.Status = InvoiceStatusOverdue
			n++
		}
	}
	return n, nil
}

func (r *memoryBillingRepo) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return fn(&memoryBillingTx{repo: r})
}

type memoryBillingTx struct {
	repo *memoryBillingRepo
}

func (t *memoryBillingTx) LockInvoice(ctx context.Context, tenantID, id int64) (*Invoice, error) {
	return t.repo.GetInvoice(ctx, tenantID, id)
}

func (t *memoryBillingTx) InsertPayment(ctx context.Context, p Payment) (*Payment, error) {
	t.repo.nextPaymentID++
	p.ID = t.repo.nextPaymentID
	t.repo.payments[p.ID] = &p
	copied := p
	return &copied, nil
}

func (t *memoryBillingTx) UpdatePaymentStatus(ctx context.Context, tenantID, id int64, status PaymentStatus, notes *string) (*Payment, error) {
	p, ok := t.repo.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrPaymentNotFound
	}
	p.Status = status
	if notes != nil {
		p.Notes = *notes
	}
	copied := *p
	return &copied, nil
}

func (t *memoryBillingTx) ListInvoicePayments(ctx context.Context, tenantID, invoiceID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range t.repo.payments {
		if p.TenantID == tenantID && p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryBillingTx) ApplyAggregate(ctx context.Context, tenantID, invoiceID int64, agg Aggregate) error {
	inv, ok := t.repo.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return ErrInvoiceNotFound
	}
	inv.PaidAmount = agg.PaidAmount
	inv.PaymentStatus = agg.PaymentStatus
	inv.Status = agg.InvoiceStatus
	inv.PaidAt = agg.PaidAt
	return nil
}

func (t *memoryBillingTx) NextPaymentNumber(ctx context.Context) (string, error) {
	t.repo.paymentCounter++
	return "PAY-TEST-" + string(rune('0'+t.repo.paymentCounter)), nil
}

func newTestService(repo *memoryBillingRepo) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, nil, nil, logger)
}

func testIdentity() shared.Identity {
	return shared.Identity{TenantID: 1, UserID: 10, Role: shared.RoleManager}
}

func TestRecordPaymentWithoutInvoice(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	svc := newTestService(repo)

	p, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
		ClientID: 7,
		Amount:   decimal.RequireFromString("25.50"),
		Method:   MethodCash,
	}, "")
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, p.Status)
	require.Nil(t, p.InvoiceID)
	require.True(t, p.Amount.Equal(decimal.RequireFromString("25.50")))
}

func TestRecordPaymentRecomputesInvoice(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	inv := repo.addInvoice(1, 7, "100", InvoiceStatusSent)
	svc := newTestService(repo)
	ident := testIdentity()

	_, err := svc.RecordPayment(context.Background(), ident, RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &inv.ID,
		Amount:    decimal.RequireFromString("40"),
		Method:    MethodBankTransfer,
	}, "")
	require.NoError(t, err)

	got, err := svc.GetInvoice(context.Background(), ident, inv.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.Equal(decimal.RequireFromString("40")))
	require.Equal(t, CoveragePartial, got.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, got.Status)
	require.Nil(t, got.PaidAt)

	detail, err := svc.RecordPayment(context.Background(), ident, RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &inv.ID,
		Amount:    decimal.RequireFromString("60"),
		Method:    MethodBankTransfer,
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(7), detail.Client.ID)
	require.NotNil(t, detail.Invoice)
	require.Equal(t, CoveragePaid, detail.Invoice.PaymentStatus)
	require.True(t, detail.Invoice.PaidAmount.Equal(decimal.RequireFromString("100")))

	got, err = svc.GetInvoice(context.Background(), ident, inv.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.Equal(decimal.RequireFromString("100")))
	require.Equal(t, CoveragePaid, got.PaymentStatus)
	require.Equal(t, InvoiceStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	svc := newTestService(repo)

	for _, amount := range []string{"0", "-5"} {
		_, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
			ClientID: 7,
			Amount:   decimal.RequireFromString(amount),
			Method:   MethodCash,
		}, "")
		require.ErrorIs(t, err, ErrAmountNotPositive)
	}
	require.Empty(t, repo.payments)
}

func TestRecordPaymentUnknownMethod(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
		ClientID: 7,
		Amount:   decimal.RequireFromString("10"),
		Method:   PaymentMethod("BARTER"),
	}, "")
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRecordPaymentUnknownClient(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
		ClientID: 99,
		Amount:   decimal.RequireFromString("10"),
		Method:   MethodCash,
	}, "")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestRecordPaymentHidesForeignTenantInvoice(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	foreign := repo.addInvoice(2, 7, "100", InvoiceStatusSent)
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &foreign.ID,
		Amount:    decimal.RequireFromString("10"),
		Method:    MethodCash,
	}, "")
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestRecordPaymentClientMismatch(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	repo.addClient(1, 8)
	inv := repo.addInvoice(1, 8, "100", InvoiceStatusSent)
	svc := newTestService(repo)

	_, err := svc.RecordPayment(context.Background(), testIdentity(), RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &inv.ID,
		Amount:    decimal.RequireFromString("10"),
		Method:    MethodCash,
	}, "")
	require.ErrorIs(t, err, ErrClientMismatch)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdatePaymentStatusFailurePullsInvoiceBack(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	inv := repo.addInvoice(1, 7, "100", InvoiceStatusSent)
	svc := newTestService(repo)
	ident := testIdentity()

	p, err := svc.RecordPayment(context.Background(), ident, RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &inv.ID,
		Amount:    decimal.RequireFromString("100"),
		Method:    MethodMobileMoney,
	}, "")
	require.NoError(t, err)

	got, err := svc.GetInvoice(context.Background(), ident, inv.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusPaid, got.Status)

	updated, err := svc.UpdatePaymentStatus(context.Background(), ident, p.ID, UpdatePaymentStatusInput{
		Status: PaymentStatusFailed,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusFailed, updated.Status)

	got, err = svc.GetInvoice(context.Background(), ident, inv.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.IsZero())
	require.Equal(t, CoveragePending, got.PaymentStatus)
	require.Equal(t, InvoiceStatusSent, got.Status)
	require.Nil(t, got.PaidAt)
}

func TestUpdatePaymentStatusUpdatesNotes(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	svc := newTestService(repo)
	ident := testIdentity()

	p, err := svc.RecordPayment(context.Background(), ident, RecordPaymentInput{
		ClientID: 7,
		Amount:   decimal.RequireFromString("30"),
		Method:   MethodCard,
	}, "")
	require.NoError(t, err)

	notes := "chargeback received"
	updated, err := svc.UpdatePaymentStatus(context.Background(), ident, p.ID, UpdatePaymentStatusInput{
		Status: PaymentStatusRefunded,
		Notes:  &notes,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusRefunded, updated.Status)
	require.Equal(t, notes, updated.Notes)
}

func TestUpdatePaymentStatusUnknownStatus(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)

	_, err := svc.UpdatePaymentStatus(context.Background(), testIdentity(), 1, UpdatePaymentStatusInput{
		Status: PaymentStatus("SETTLED"),
	})
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUpdatePaymentStatusNotFound(t *testing.T) {
	repo := newMemoryBillingRepo()
	svc := newTestService(repo)

	_, err := svc.UpdatePaymentStatus(context.Background(), testIdentity(), 42, UpdatePaymentStatusInput{
		Status: PaymentStatusPaid,
	})
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestCreateInvoiceComputesTotal(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), testIdentity(), CreateInvoiceInput{
		ClientID:       7,
		Subtotal:       decimal.RequireFromString("100"),
		TaxAmount:      decimal.RequireFromString("18"),
		DiscountAmount: decimal.RequireFromString("8"),
		DueAt:          time.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	require.True(t, inv.Total.Equal(decimal.RequireFromString("110")))
	require.Equal(t, InvoiceStatusDraft, inv.Status)
	require.Equal(t, CoveragePending, inv.PaymentStatus)
	require.True(t, inv.PaidAmount.IsZero())
}

func TestSendInvoiceOnlyFromDraft(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	draft := repo.addInvoice(1, 7, "50", InvoiceStatusDraft)
	sent := repo.addInvoice(1, 7, "50", InvoiceStatusSent)
	svc := newTestService(repo)
	ident := testIdentity()

	inv, err := svc.SendInvoice(context.Background(), ident, draft.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.IssuedAt)

	_, err = svc.SendInvoice(context.Background(), ident, sent.ID)
	require.ErrorIs(t, err, ErrInvoiceNotDraft)
}

func TestDeleteInvoiceWithPaymentsRejected(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	inv := repo.addInvoice(1, 7, "100", InvoiceStatusSent)
	svc := newTestService(repo)
	ident := testIdentity()

	_, err := svc.RecordPayment(context.Background(), ident, RecordPaymentInput{
		ClientID:  7,
		InvoiceID: &inv.ID,
		Amount:    decimal.RequireFromString("10"),
		Method:    MethodCash,
	}, "")
	require.NoError(t, err)

	err = svc.DeleteInvoice(context.Background(), ident, inv.ID)
	require.ErrorIs(t, err, ErrInvoiceHasPayments)

	empty := repo.addInvoice(1, 7, "100", InvoiceStatusDraft)
	require.NoError(t, svc.DeleteInvoice(context.Background(), ident, empty.ID))

	_, err = svc.GetInvoice(context.Background(), ident, empty.ID)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestMarkOverdueFlipsSentInvoices(t *testing.T) {
	repo := newMemoryBillingRepo()
	repo.addClient(1, 7)
	due := repo.addInvoice(1, 7, "100", InvoiceStatusSent)
	due.DueAt = time.Now().Add(-24 * time.Hour)
	current := repo.addInvoice(1, 7, "100", InvoiceStatusSent)
	draft := repo.addInvoice(1, 7, "100", InvoiceStatusDraft)
	draft.DueAt = time.Now().Add(-24 * time.Hour)
	svc := newTestService(repo)

	n, err := svc.MarkOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, InvoiceStatusOverdue, repo.invoices[due.ID].Status)
	require.Equal(t, InvoiceStatusSent, repo.invoices[current.ID].Status)
	require.Equal(t, InvoiceStatusDraft, repo.invoices[draft.ID].Status)
}
