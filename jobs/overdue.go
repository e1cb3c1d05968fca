package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fleetline-erp/fleetline-erp/internal/observability"
)

// CronOverdueScan runs the overdue sweep every day shortly after midnight UTC.
const CronOverdueScan = "10 0 * * *"

// OverdueMarker flips sent invoices past their due date to OVERDUE.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueScanHandler builds the handler for the scheduled overdue scan.
func NewOverdueScanHandler(marker OverdueMarker, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := marker.MarkOverdue(ctx, time.Now())
		if err != nil {
			return err
		}
		metrics.InvoicesMarkedOverdue(n)
		if n > 0 {
			logger.Info("invoices marked overdue", slog.Int64("count", n))
		}
		return nil
	}
}
