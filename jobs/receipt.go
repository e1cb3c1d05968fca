package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fleetline-erp/fleetline-erp/internal/billing"
)

// ReceiptSource loads the data a payment receipt mail needs.
type ReceiptSource interface {
	ReceiptData(ctx context.Context, tenantID, paymentID int64) (*billing.ReceiptData, error)
}

// NewPaymentReceiptHandler builds the handler for receipt tasks. A payment
// deleted between enqueue and processing is skipped, not retried.
func NewPaymentReceiptHandler(source ReceiptSource, mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	printer := message.NewPrinter(language.English)
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PaymentReceiptPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		data, err := source.ReceiptData(ctx, payload.TenantID, payload.PaymentID)
		if err != nil {
			logger.Warn("receipt data unavailable",
				slog.Int64("payment_id", payload.PaymentID),
				slog.Any("error", err))
			return asynq.SkipRetry
		}
		if data.ClientEmail == "" {
			return nil
		}

		amount, _ := data.Payment.Amount.Float64()
		subject := fmt.Sprintf("Payment receipt %s", data.Payment.Number)
		body := printer.Sprintf(
			"Dear %s,\n\nWe confirm receipt of your payment of %.2f via %s on %s.",
			data.ClientName, amount, data.Payment.Method,
			data.Payment.PaidAt.Format("02 Jan 2006"),
		)
		if data.InvoiceNumber != "" {
			body += printer.Sprintf("\nThis payment was applied to invoice %s.", data.InvoiceNumber)
		}
		if data.Payment.Reference != "" {
			body += printer.Sprintf("\nReference: %s", data.Payment.Reference)
		}
		body += "\n\nThank you for your business."

		if err := mailer.Send(data.ClientEmail, subject, body); err != nil {
			return fmt.Errorf("jobs: send receipt: %w", err)
		}
		logger.Info("payment receipt sent",
			slog.Int64("payment_id", payload.PaymentID),
			slog.String("to", data.ClientEmail))
		return nil
	}
}
