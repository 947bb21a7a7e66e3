package inventory

import (
	"context"
	"sort"
)

// CurrentStock returns the on-hand quantity for one product, optionally
// scoped to a warehouse. Lotted stock is the sum of current batch balances;
// bulk stock reads the running counter.
func (s *Service) CurrentStock(ctx context.Context, productID, warehouseID int64) (StockInfo, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return StockInfo{}, err
	}
	var qty float64
	switch product.StorageMode {
	case StorageModeLotted:
		qty, err = s.repo.SumBatchQuantities(ctx, productID, warehouseID)
	case StorageModeBulk:
		qty, err = s.repo.GetCounter(ctx, productID, warehouseID)
	}
	if err != nil {
		return StockInfo{}, err
	}
	return stockInfo(product, warehouseID, qty), nil
}

// StockOverview computes current stock for every active product, optionally
// scoped to one warehouse, ordered by product code.
func (s *Service) StockOverview(ctx context.Context, warehouseID int64) ([]StockInfo, error) {
	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]StockInfo, 0, len(products))
	for _, product := range products {
		var qty float64
		switch product.StorageMode {
		case StorageModeLotted:
			qty, err = s.repo.SumBatchQuantities(ctx, product.ID, warehouseID)
		case StorageModeBulk:
			qty, err = s.repo.GetCounter(ctx, product.ID, warehouseID)
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, stockInfo(product, warehouseID, qty))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ProductCode < infos[j].ProductCode })
	return infos, nil
}

// ReplayStock recomputes the on-hand quantity for one product from the full
// ledger, independent of batch balances and counters. It is the audit path:
// the result must match CurrentStock, and any drift points at a bug, not at
// data to be silently patched.
func (s *Service) ReplayStock(ctx context.Context, productID, warehouseID int64) (float64, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return 0, err
	}
	return s.repo.ReplayStock(ctx, productID, warehouseID)
}

func stockInfo(product Product, warehouseID int64, qty float64) StockInfo {
	minStock := 0.0
	if product.MinStock != nil {
		minStock = *product.MinStock
	}
	return StockInfo{
		ProductID:   product.ID,
		ProductCode: product.Code,
		ProductName: product.Name,
		Unit:        product.Unit,
		StorageMode: product.StorageMode,
		WarehouseID: warehouseID,
		Qty:         qty,
		MinStock:    minStock,
		IsLowStock:  product.MinStock != nil && qty <= minStock,
	}
}
