// Package jobs runs background work over Asynq: payment receipt mail and the
// scheduled invoice overdue scan.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePaymentReceipt sends a receipt mail for a recorded payment.
	TaskTypePaymentReceipt = "billing:payment_receipt"
	// TaskTypeOverdueScan flips sent invoices past due date to OVERDUE.
	TaskTypeOverdueScan = "billing:overdue_scan"
)

// PaymentReceiptPayload identifies the payment to send a receipt for.
type PaymentReceiptPayload struct {
	TenantID  int64 `json:"tenant_id"`
	PaymentID int64 `json:"payment_id"`
}

// NewPaymentReceiptTask constructs the receipt task.
func NewPaymentReceiptTask(payload PaymentReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePaymentReceipt, data), nil
}

// NewOverdueScanTask constructs the overdue scan task. The scan carries no
// payload; it sweeps all tenants.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueScan, nil)
}
