package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fleetline-erp/fleetline-erp/internal/billing"
)

type fakeReceiptSource struct {
	data *billing.ReceiptData
	err  error
}

func (f *fakeReceiptSource) ReceiptData(ctx context.Context, tenantID, paymentID int64) (*billing.ReceiptData, error) {
	return f.data, f.err
}

type recordingMailer struct {
	to      string
	subject string
	body    string
	sent    int
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	m.sent++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receiptTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewPaymentReceiptTask(PaymentReceiptPayload{TenantID: 1, PaymentID: 3})
	require.NoError(t, err)
	return task
}

func TestPaymentReceiptHandlerSendsMail(t *testing.T) {
	source := &fakeReceiptSource{data: &billing.ReceiptData{
		Payment: billing.Payment{
			ID:     3,
			Number: "PAY-2026-000003",
			Amount: decimal.RequireFromString("1250.75"),
			Method: billing.MethodBankTransfer,
			PaidAt: time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC),
		},
		ClientName:    "Acme Logistics",
		ClientEmail:   "billing@acme.test",
		InvoiceNumber: "INV-2026-000019",
	}}
	mailer := &recordingMailer{}
	handler := NewPaymentReceiptHandler(source, mailer, discardLogger())

	require.NoError(t, handler(context.Background(), receiptTask(t)))
	require.Equal(t, 1, mailer.sent)
	require.Equal(t, "billing@acme.test", mailer.to)
	require.Contains(t, mailer.subject, "PAY-2026-000003")
	require.Contains(t, mailer.body, "Acme Logistics")
	require.Contains(t, mailer.body, "INV-2026-000019")
}

func TestPaymentReceiptHandlerSkipsMissingPayment(t *testing.T) {
	source := &fakeReceiptSource{err: billing.ErrPaymentNotFound}
	mailer := &recordingMailer{}
	handler := NewPaymentReceiptHandler(source, mailer, discardLogger())

	err := handler(context.Background(), receiptTask(t))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, mailer.sent)
}

func TestPaymentReceiptHandlerSkipsMissingEmail(t *testing.T) {
	source := &fakeReceiptSource{data: &billing.ReceiptData{
		Payment:    billing.Payment{Number: "PAY-1", Amount: decimal.New(10, 0), PaidAt: time.Now()},
		ClientName: "Walk-in",
	}}
	mailer := &recordingMailer{}
	handler := NewPaymentReceiptHandler(source, mailer, discardLogger())

	require.NoError(t, handler(context.Background(), receiptTask(t)))
	require.Zero(t, mailer.sent)
}
