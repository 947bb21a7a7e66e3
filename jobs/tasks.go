package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrity replays the movement ledger and compares it with
	// the tracked balances.
	TaskStockIntegrity = "stock:integrity"
	// TaskExpiryScan classifies batches against their expiry dates.
	TaskExpiryScan = "stock:expiry_scan"
)

// StockIntegrityPayload scopes the integrity run. A zero ProductID means all
// active products.
type StockIntegrityPayload struct {
	ProductID int64 `json:"product_id,omitempty"`
}

// NewStockIntegrityTask constructs an Asynq task.
func NewStockIntegrityTask(payload StockIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrity, data), nil
}

// ExpiryScanPayload configures the expiry sweep window.
type ExpiryScanPayload struct {
	WithinDays int `json:"within_days"`
}

// NewExpiryScanTask constructs an Asynq task.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryScan, data), nil
}
