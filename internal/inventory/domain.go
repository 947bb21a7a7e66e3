package inventory

import (
	"errors"
	"time"
)

// StorageMode selects how stock is tracked for a product.
type StorageMode string

const (
	// StorageModeLotted tracks stock per batch with its own depleting balance.
	StorageModeLotted StorageMode = "LOTTED"
	// StorageModeBulk tracks stock as an undifferentiated running total.
	StorageModeBulk StorageMode = "BULK"
)

// MovementType enumerates supported stock-changing events.
type MovementType string

const (
	// MovementReceipt represents an inbound movement.
	MovementReceipt MovementType = "RECEIPT"
	// MovementIssue represents an outbound movement.
	MovementIssue MovementType = "ISSUE"
	// MovementTransfer moves stock between warehouses in one unit.
	MovementTransfer MovementType = "TRANSFER"
	// MovementAdjustment indicates a signed manual correction.
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Product is the slice of the product record the ledger needs.
type Product struct {
	ID             int64
	Code           string
	Name           string
	Unit           string
	StorageMode    StorageMode
	MinStock       *float64
	RequiresExpiry bool
	IsActive       bool
}

// Batch is a tracked quantity of a lotted product received at one time.
// A batch is never deleted; it drains to zero and stays as history.
type Batch struct {
	ID              int64
	Code            string
	ProductID       int64
	WarehouseID     int64
	BatchNumber     int
	InitialQuantity float64
	CurrentQuantity float64
	ExpiryDate      *time.Time
	CreatedAt       time.Time
}

// Movement is an immutable, append-only stock-changing fact. Seq orders the
// ledger and drives pagination; it carries no business meaning. Qty is
// positive for every type except ADJUSTMENT, which keeps its sign. Transfers
// persist one row carrying both warehouses (and both batches when lotted):
// the destination in WarehouseID, the source in SrcWarehouseID.
type Movement struct {
	Seq            int64        `json:"seq"`
	Type           MovementType `json:"type"`
	ProductID      int64        `json:"product_id"`
	WarehouseID    int64        `json:"warehouse_id"`
	SrcWarehouseID int64        `json:"src_warehouse_id,omitempty"`
	BatchID        int64        `json:"batch_id,omitempty"`
	DstBatchID     int64        `json:"dst_batch_id,omitempty"`
	Qty            float64      `json:"qty"`
	Reason         string       `json:"reason,omitempty"`
	ActorID        int64        `json:"actor_id"`
	RefID          string       `json:"ref_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// StockInfo is the aggregated on-hand figure for one product.
type StockInfo struct {
	ProductID   int64       `json:"product_id"`
	ProductCode string      `json:"product_code"`
	ProductName string      `json:"product_name"`
	Unit        string      `json:"unit"`
	StorageMode StorageMode `json:"storage_mode"`
	WarehouseID int64       `json:"warehouse_id,omitempty"`
	Qty         float64     `json:"qty"`
	MinStock    float64     `json:"min_stock"`
	IsLowStock  bool        `json:"is_low_stock"`
}

// MovementFilter narrows ledger queries. BeforeSeq is a keyset cursor: pages
// are returned most recent first and restart cleanly from any cursor.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Type        MovementType
	From        time.Time
	To          time.Time
	BeforeSeq   int64
	Limit       int
}

// BatchFilter narrows batch listings.
type BatchFilter struct {
	ProductID          int64
	WarehouseID        int64
	ExpiringWithinDays int
	Page               int
	PerPage            int
}

var (
	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be greater than zero")
	// ErrMissingBatchReference indicates a lotted debit without a batch id.
	ErrMissingBatchReference = errors.New("inventory: batch reference required for lotted product")
	// ErrInsufficientBatchQuantity indicates a debit larger than the batch balance.
	ErrInsufficientBatchQuantity = errors.New("inventory: insufficient batch quantity")
	// ErrNegativeStock indicates a bulk debit that would drop stock below zero.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrProductNotFound indicates an unknown product.
	ErrProductNotFound = errors.New("inventory: product not found")
	// ErrBatchNotFound indicates an unknown batch.
	ErrBatchNotFound = errors.New("inventory: batch not found")
	// ErrBatchMismatch indicates a batch that belongs to another product or warehouse.
	ErrBatchMismatch = errors.New("inventory: batch does not belong to product and warehouse")
	// ErrExpiryRequired indicates the product demands an expiry date on new batches.
	ErrExpiryRequired = errors.New("inventory: expiry date required for this product")
	// ErrStorageModeMismatch indicates a batch operation against a bulk product.
	ErrStorageModeMismatch = errors.New("inventory: operation not valid for product storage mode")
	// ErrSameWarehouse indicates a transfer with identical endpoints.
	ErrSameWarehouse = errors.New("inventory: source and destination warehouse must differ")
)
