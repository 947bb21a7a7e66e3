package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplayMatchesCountersAfterMixedHistory(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(bulkProduct(2))
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ProductID: 2, WarehouseID: 10, Qty: 100})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueInput{ProductID: 2, WarehouseID: 10, Qty: 30})
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, TransferInput{ProductID: 2, SrcWarehouseID: 10, DstWarehouseID: 20, Qty: 25})
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, AdjustInput{ProductID: 2, WarehouseID: 20, Qty: -5, Reason: "damage"})
	require.NoError(t, err)

	for _, warehouseID := range []int64{0, 10, 20} {
		replayed, err := svc.ReplayStock(ctx, 2, warehouseID)
		require.NoError(t, err)
		current, err := svc.CurrentStock(ctx, 2, warehouseID)
		require.NoError(t, err)
		require.InDelta(t, current.Qty, replayed, 1e-9, "warehouse %d", warehouseID)
	}

	total, err := svc.ReplayStock(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 65.0, total)
}

func TestReplayMatchesBatchSumsForLottedProduct(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(lottedProduct(1))
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.Receive(ctx, ReceiveInput{ProductID: 1, WarehouseID: 10, Qty: 40})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{ProductID: 1, WarehouseID: 10, Qty: 10, BatchID: first.Batch.ID})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueInput{ProductID: 1, WarehouseID: 10, Qty: 15, BatchID: first.Batch.ID})
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, TransferInput{ProductID: 1, SrcWarehouseID: 10, DstWarehouseID: 20, Qty: 5, BatchID: first.Batch.ID})
	require.NoError(t, err)

	replayed, err := svc.ReplayStock(ctx, 1, 0)
	require.NoError(t, err)
	current, err := svc.CurrentStock(ctx, 1, 0)
	require.NoError(t, err)
	require.InDelta(t, current.Qty, replayed, 1e-9)
	require.Equal(t, 35.0, replayed)
}

func TestStockOverviewFlagsLowStock(t *testing.T) {
	repo := newMemoryRepo()
	low := bulkProduct(2)
	min := 50.0
	low.MinStock = &min
	repo.addProduct(low)
	healthy := lottedProduct(1)
	repo.addProduct(healthy)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ProductID: 2, WarehouseID: 10, Qty: 20})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{ProductID: 1, WarehouseID: 10, Qty: 100})
	require.NoError(t, err)

	infos, err := svc.StockOverview(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	require.Equal(t, "PRD001", infos[0].ProductCode)
	require.False(t, infos[0].IsLowStock)
	require.Equal(t, "PRD002", infos[1].ProductCode)
	require.True(t, infos[1].IsLowStock)
	require.Equal(t, 50.0, infos[1].MinStock)
}

func TestStockOverviewScopedToWarehouse(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(bulkProduct(2))
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ProductID: 2, WarehouseID: 10, Qty: 30})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{ProductID: 2, WarehouseID: 20, Qty: 12})
	require.NoError(t, err)

	infos, err := svc.StockOverview(ctx, 20)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, 12.0, infos[0].Qty)
}
