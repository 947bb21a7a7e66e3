package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Lightwin075/RossiChatllm2/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	QueryMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, int, error)
	SumBatchQuantities(ctx context.Context, productID, warehouseID int64) (float64, error)
	GetCounter(ctx context.Context, productID, warehouseID int64) (float64, error)
	ReplayStock(ctx context.Context, productID, warehouseID int64) (float64, error)
	ListActiveProducts(ctx context.Context) ([]Product, error)
}

// TxRepository exposes the transactional operations used while posting a
// movement. The batch decrement and the counter decrement are conditional
// updates with an affected-row check, so the insufficient-balance test and
// the mutation are one atomic unit per row.
type TxRepository interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	LockProduct(ctx context.Context, id int64) error
	GetBatch(ctx context.Context, id int64) (Batch, error)
	NextBatchNumber(ctx context.Context, productID int64) (int, error)
	InsertBatch(ctx context.Context, batch Batch) (int64, error)
	IncrementBatch(ctx context.Context, batchID int64, qty float64) error
	DecrementBatch(ctx context.Context, batchID int64, qty float64) (bool, error)
	AdjustCounter(ctx context.Context, productID, warehouseID int64, delta float64) error
	DecrementCounter(ctx context.Context, productID, warehouseID int64, qty float64) (bool, error)
	InsertMovement(ctx context.Context, mov Movement) (int64, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the movement ledger, batch lifecycle and stock reads.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// ReceiveInput describes an inbound movement. BatchID targets an existing
// batch; when absent a lotted product gets a freshly allocated batch.
type ReceiveInput struct {
	ProductID   int64
	WarehouseID int64
	Qty         float64
	BatchID     int64
	ExpiryDate  *time.Time
	Reason      string
	ActorID     int64
	RefID       string
}

// IssueInput describes an outbound movement.
type IssueInput struct {
	ProductID   int64
	WarehouseID int64
	Qty         float64
	BatchID     int64
	Reason      string
	ActorID     int64
	RefID       string
}

// TransferInput moves stock between warehouses as one unit.
type TransferInput struct {
	ProductID      int64
	SrcWarehouseID int64
	DstWarehouseID int64
	Qty            float64
	BatchID        int64
	DstBatchID     int64
	Reason         string
	ActorID        int64
	RefID          string
}

// AdjustInput describes a signed manual correction.
type AdjustInput struct {
	ProductID   int64
	WarehouseID int64
	Qty         float64
	BatchID     int64
	Reason      string
	ActorID     int64
	RefID       string
}

// ReceiveResult carries the persisted movement and, for lotted products, the
// batch that absorbed the receipt.
type ReceiveResult struct {
	Movement Movement
	Batch    *Batch
}

// Receive posts a RECEIPT. For lotted products it increments the referenced
// batch, or allocates a new one when no batch id is given. Initial quantity
// reflects the first receipt only; follow-up receipts into the same batch
// raise the current quantity alone.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (ReceiveResult, error) {
	if input.Qty <= 0 {
		return ReceiveResult{}, ErrInvalidQuantity
	}
	var result ReceiveResult
	err := s.post(ctx, MovementReceipt, input.RefID, input.ActorID, func(ctx context.Context, tx TxRepository) (Movement, error) {
		product, err := tx.GetProduct(ctx, input.ProductID)
		if err != nil {
			return Movement{}, err
		}
		mov := Movement{
			Type:        MovementReceipt,
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Qty:         input.Qty,
			Reason:      input.Reason,
			ActorID:     input.ActorID,
			RefID:       input.RefID,
		}
		switch product.StorageMode {
		case StorageModeLotted:
			batch, err := s.receiveIntoBatch(ctx, tx, product, input)
			if err != nil {
				return Movement{}, err
			}
			mov.BatchID = batch.ID
			result.Batch = &batch
		case StorageModeBulk:
			if input.BatchID != 0 {
				return Movement{}, ErrStorageModeMismatch
			}
			if err := tx.AdjustCounter(ctx, input.ProductID, input.WarehouseID, input.Qty); err != nil {
				return Movement{}, err
			}
		}
		return mov, nil
	}, &result.Movement)
	if err != nil {
		return ReceiveResult{}, err
	}
	return result, nil
}

// Issue posts an ISSUE. For lotted products the batch id is mandatory and the
// check-and-decrement is atomic per batch row: two concurrent issues can
// never both succeed against the same insufficient balance.
func (s *Service) Issue(ctx context.Context, input IssueInput) (Movement, error) {
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	var mov Movement
	err := s.post(ctx, MovementIssue, input.RefID, input.ActorID, func(ctx context.Context, tx TxRepository) (Movement, error) {
		product, err := tx.GetProduct(ctx, input.ProductID)
		if err != nil {
			return Movement{}, err
		}
		mov := Movement{
			Type:        MovementIssue,
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Qty:         input.Qty,
			Reason:      input.Reason,
			ActorID:     input.ActorID,
			RefID:       input.RefID,
		}
		switch product.StorageMode {
		case StorageModeLotted:
			if input.BatchID == 0 {
				return Movement{}, ErrMissingBatchReference
			}
			if err := s.debitBatch(ctx, tx, input.BatchID, input.ProductID, input.WarehouseID, input.Qty); err != nil {
				return Movement{}, err
			}
			mov.BatchID = input.BatchID
		case StorageModeBulk:
			ok, err := tx.DecrementCounter(ctx, input.ProductID, input.WarehouseID, input.Qty)
			if err != nil {
				return Movement{}, err
			}
			if !ok {
				return Movement{}, ErrNegativeStock
			}
		}
		return mov, nil
	}, &mov)
	return mov, err
}

// Transfer debits the source and credits the destination in one transaction;
// if either leg fails nothing is recorded.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Movement, error) {
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.SrcWarehouseID == input.DstWarehouseID {
		return Movement{}, ErrSameWarehouse
	}
	var mov Movement
	err := s.post(ctx, MovementTransfer, input.RefID, input.ActorID, func(ctx context.Context, tx TxRepository) (Movement, error) {
		product, err := tx.GetProduct(ctx, input.ProductID)
		if err != nil {
			return Movement{}, err
		}
		mov := Movement{
			Type:           MovementTransfer,
			ProductID:      input.ProductID,
			WarehouseID:    input.DstWarehouseID,
			SrcWarehouseID: input.SrcWarehouseID,
			Qty:            input.Qty,
			Reason:         input.Reason,
			ActorID:        input.ActorID,
			RefID:          input.RefID,
		}
		switch product.StorageMode {
		case StorageModeLotted:
			if input.BatchID == 0 {
				return Movement{}, ErrMissingBatchReference
			}
			src, err := tx.GetBatch(ctx, input.BatchID)
			if err != nil {
				return Movement{}, err
			}
			if src.ProductID != input.ProductID || src.WarehouseID != input.SrcWarehouseID {
				return Movement{}, ErrBatchMismatch
			}
			ok, err := tx.DecrementBatch(ctx, src.ID, input.Qty)
			if err != nil {
				return Movement{}, err
			}
			if !ok {
				return Movement{}, ErrInsufficientBatchQuantity
			}
			dstID := input.DstBatchID
			if dstID != 0 {
				dst, err := tx.GetBatch(ctx, dstID)
				if err != nil {
					return Movement{}, err
				}
				if dst.ProductID != input.ProductID || dst.WarehouseID != input.DstWarehouseID {
					return Movement{}, ErrBatchMismatch
				}
				if err := tx.IncrementBatch(ctx, dstID, input.Qty); err != nil {
					return Movement{}, err
				}
			} else {
				dst, err := s.allocateBatch(ctx, tx, product, input.DstWarehouseID, input.Qty, src.ExpiryDate)
				if err != nil {
					return Movement{}, err
				}
				dstID = dst.ID
			}
			mov.BatchID = src.ID
			mov.DstBatchID = dstID
		case StorageModeBulk:
			ok, err := tx.DecrementCounter(ctx, input.ProductID, input.SrcWarehouseID, input.Qty)
			if err != nil {
				return Movement{}, err
			}
			if !ok {
				return Movement{}, ErrNegativeStock
			}
			if err := tx.AdjustCounter(ctx, input.ProductID, input.DstWarehouseID, input.Qty); err != nil {
				return Movement{}, err
			}
		}
		return mov, nil
	}, &mov)
	return mov, err
}

// Adjust posts a signed ADJUSTMENT. Lotted adjustments target a batch;
// negative ones are subject to the same floor as issues.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Movement, error) {
	if math.Abs(input.Qty) < 1e-9 {
		return Movement{}, ErrInvalidQuantity
	}
	var mov Movement
	err := s.post(ctx, MovementAdjustment, input.RefID, input.ActorID, func(ctx context.Context, tx TxRepository) (Movement, error) {
		product, err := tx.GetProduct(ctx, input.ProductID)
		if err != nil {
			return Movement{}, err
		}
		mov := Movement{
			Type:        MovementAdjustment,
			ProductID:   input.ProductID,
			WarehouseID: input.WarehouseID,
			Qty:         input.Qty,
			Reason:      input.Reason,
			ActorID:     input.ActorID,
			RefID:       input.RefID,
		}
		switch product.StorageMode {
		case StorageModeLotted:
			if input.BatchID == 0 {
				return Movement{}, ErrMissingBatchReference
			}
			if input.Qty > 0 {
				batch, err := tx.GetBatch(ctx, input.BatchID)
				if err != nil {
					return Movement{}, err
				}
				if batch.ProductID != input.ProductID || batch.WarehouseID != input.WarehouseID {
					return Movement{}, ErrBatchMismatch
				}
				if err := tx.IncrementBatch(ctx, input.BatchID, input.Qty); err != nil {
					return Movement{}, err
				}
			} else {
				if err := s.debitBatch(ctx, tx, input.BatchID, input.ProductID, input.WarehouseID, -input.Qty); err != nil {
					return Movement{}, err
				}
			}
			mov.BatchID = input.BatchID
		case StorageModeBulk:
			if input.Qty > 0 {
				if err := tx.AdjustCounter(ctx, input.ProductID, input.WarehouseID, input.Qty); err != nil {
					return Movement{}, err
				}
			} else {
				ok, err := tx.DecrementCounter(ctx, input.ProductID, input.WarehouseID, -input.Qty)
				if err != nil {
					return Movement{}, err
				}
				if !ok {
					return Movement{}, ErrNegativeStock
				}
			}
		}
		return mov, nil
	}, &mov)
	return mov, err
}

// Query lists ledger entries most recent first, keyset-paginated by sequence
// number. Read-only.
func (s *Service) Query(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.repo.QueryMovements(ctx, filter)
}

// ListBatches lists batches subject to the filter.
func (s *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, int, error) {
	if filter.PerPage <= 0 || filter.PerPage > 200 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.ListBatches(ctx, filter)
}

// post runs the movement builder inside one transaction together with the
// durable append. The ledger never contains an event that was not actually
// realizable: when the delegated quantity change fails, the append aborts
// with it.
func (s *Service) post(ctx context.Context, movType MovementType, refID string, actorID int64, build func(context.Context, TxRepository) (Movement, error), out *Movement) error {
	if refID != "" {
		if _, err := uuid.Parse(refID); err != nil {
			return fmt.Errorf("inventory: invalid ref id: %w", err)
		}
	}
	key := ""
	insertedKey := false
	if s.idempotency != nil && refID != "" {
		key = fmt.Sprintf("%s:%s", movType, refID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return err
		}
		insertedKey = true
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		mov, err := build(ctx, tx)
		if err != nil {
			return err
		}
		mov.CreatedAt = time.Now().UTC()
		seq, err := tx.InsertMovement(ctx, mov)
		if err != nil {
			return err
		}
		mov.Seq = seq
		*out = mov
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return shared.MapTxError(err)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("inventory:%s", movType),
			Entity:   "movement",
			EntityID: fmt.Sprintf("%d", out.Seq),
			Meta: map[string]any{
				"product_id":   out.ProductID,
				"warehouse_id": out.WarehouseID,
				"batch_id":     out.BatchID,
				"qty":          out.Qty,
				"reason":       out.Reason,
			},
		})
	}
	return nil
}

func (s *Service) receiveIntoBatch(ctx context.Context, tx TxRepository, product Product, input ReceiveInput) (Batch, error) {
	if input.BatchID != 0 {
		batch, err := tx.GetBatch(ctx, input.BatchID)
		if err != nil {
			return Batch{}, err
		}
		if batch.ProductID != input.ProductID || batch.WarehouseID != input.WarehouseID {
			return Batch{}, ErrBatchMismatch
		}
		if err := tx.IncrementBatch(ctx, batch.ID, input.Qty); err != nil {
			return Batch{}, err
		}
		batch.CurrentQuantity += input.Qty
		return batch, nil
	}
	if product.RequiresExpiry && input.ExpiryDate == nil {
		return Batch{}, ErrExpiryRequired
	}
	return s.allocateBatch(ctx, tx, product, input.WarehouseID, input.Qty, input.ExpiryDate)
}

// allocateBatch creates a new batch under the product row lock so the
// per-product sequence is allocated exactly once, even under concurrent
// receipts. Sequence numbers are never reused, including for drained batches.
func (s *Service) allocateBatch(ctx context.Context, tx TxRepository, product Product, warehouseID int64, qty float64, expiry *time.Time) (Batch, error) {
	if err := tx.LockProduct(ctx, product.ID); err != nil {
		return Batch{}, err
	}
	number, err := tx.NextBatchNumber(ctx, product.ID)
	if err != nil {
		return Batch{}, err
	}
	now := time.Now().UTC()
	batch := Batch{
		Code:            BatchCode(product.Code, now, number),
		ProductID:       product.ID,
		WarehouseID:     warehouseID,
		BatchNumber:     number,
		InitialQuantity: qty,
		CurrentQuantity: qty,
		ExpiryDate:      expiry,
		CreatedAt:       now,
	}
	id, err := tx.InsertBatch(ctx, batch)
	if err != nil {
		return Batch{}, err
	}
	batch.ID = id
	return batch, nil
}

func (s *Service) debitBatch(ctx context.Context, tx TxRepository, batchID, productID, warehouseID int64, qty float64) error {
	batch, err := tx.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.ProductID != productID || batch.WarehouseID != warehouseID {
		return ErrBatchMismatch
	}
	ok, err := tx.DecrementBatch(ctx, batchID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBatchQuantity
	}
	return nil
}
