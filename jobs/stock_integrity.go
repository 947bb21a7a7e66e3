package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/Lightwin075/RossiChatllm2/internal/inventory"
	"github.com/Lightwin075/RossiChatllm2/internal/observability"
)

// StockIntegrity replays the ledger per product and compares the result with
// the tracked batch balances and counters. It is advisory: drift is logged
// and exported as a metric, never silently corrected.
type StockIntegrity struct {
	service *inventory.Service
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStockIntegrity constructs the integrity job.
func NewStockIntegrity(service *inventory.Service, metrics *observability.Metrics, logger *slog.Logger) *StockIntegrity {
	return &StockIntegrity{service: service, metrics: metrics, logger: logger}
}

// Handle processes TaskStockIntegrity tasks.
func (j *StockIntegrity) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return j.Run(ctx, payload.ProductID)
}

// Run executes the check for one product, or all active products when
// productID is zero. Products are verified concurrently; the first hard error
// aborts the run, drift alone never does.
func (j *StockIntegrity) Run(ctx context.Context, productID int64) error {
	infos, err := j.service.StockOverview(ctx, 0)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, info := range infos {
		if productID != 0 && info.ProductID != productID {
			continue
		}
		info := info
		g.Go(func() error {
			replayed, err := j.service.ReplayStock(ctx, info.ProductID, 0)
			if err != nil {
				return err
			}
			drift := replayed - info.Qty
			j.metrics.SetStockDrift(info.ProductCode, drift)
			if math.Abs(drift) > 1e-6 {
				j.logger.Warn("stock drift detected",
					slog.String("product", info.ProductCode),
					slog.Float64("tracked", info.Qty),
					slog.Float64("replayed", replayed),
					slog.Float64("drift", drift))
			}
			return nil
		})
	}
	return g.Wait()
}
