package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Lightwin075/RossiChatllm2/internal/alerts"
	"github.com/Lightwin075/RossiChatllm2/internal/inventory"
)

// ExpiryScan walks batches that expire within the configured window and logs
// their classification. Advisory only; expired stock stays on hand until
// someone posts an adjustment.
type ExpiryScan struct {
	service *inventory.Service
	logger  *slog.Logger
}

// NewExpiryScan constructs the expiry sweep job.
func NewExpiryScan(service *inventory.Service, logger *slog.Logger) *ExpiryScan {
	return &ExpiryScan{service: service, logger: logger}
}

// Handle processes TaskExpiryScan tasks.
func (j *ExpiryScan) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WithinDays <= 0 {
		payload.WithinDays = 30
	}
	return j.Run(ctx, payload.WithinDays)
}

// Run sweeps batches expiring within the window, paging through the full set.
func (j *ExpiryScan) Run(ctx context.Context, withinDays int) error {
	now := time.Now().UTC()
	page := 1
	for {
		batches, total, err := j.service.ListBatches(ctx, inventory.BatchFilter{
			ExpiringWithinDays: withinDays,
			Page:               page,
			PerPage:            100,
		})
		if err != nil {
			return err
		}
		for _, batch := range batches {
			if batch.CurrentQuantity <= 0 {
				continue
			}
			state, days := alerts.ExpiryStatus(batch.ExpiryDate, now)
			if state == alerts.ExpiryGood {
				continue
			}
			j.logger.Warn("batch nearing expiry",
				slog.String("batch", batch.Code),
				slog.String("state", string(state)),
				slog.Int("days_to_expiry", days),
				slog.Float64("quantity", batch.CurrentQuantity))
		}
		if page*100 >= total || len(batches) == 0 {
			return nil
		}
		page++
	}
}
