package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order lifecycle statuses. The lifecycle is strictly linear and
// advances one step at a time.
type Status string

const (
	StatusPreOrder Status = "PRE_ORDER"
	StatusIssued   Status = "ISSUED"
	StatusReceived Status = "RECEIVED"
	StatusPaid     Status = "PAID"
)

var statusRank = map[Status]int{
	StatusPreOrder: 0,
	StatusIssued:   1,
	StatusReceived: 2,
	StatusPaid:     3,
}

// Next returns the next status in the lifecycle and whether one exists.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPreOrder:
		return StatusIssued, true
	case StatusIssued:
		return StatusReceived, true
	case StatusReceived:
		return StatusPaid, true
	}
	return "", false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Order is a purchase order with its lines and derived money totals. All
// monetary amounts are computed to exactly three decimal places.
type Order struct {
	ID               int64           `json:"id"`
	Number           int64           `json:"number"`
	SupplierID       int64           `json:"supplier_id"`
	Status           Status          `json:"status"`
	Note             string          `json:"note,omitempty"`
	EstimatedArrival *time.Time      `json:"estimated_arrival,omitempty"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
	Lines            []Line          `json:"lines"`
	IssuedAt         *time.Time      `json:"issued_at,omitempty"`
	ReceivedAt       *time.Time      `json:"received_at,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Line is one product position on an order.
type Line struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Filter narrows order listings.
type Filter struct {
	SupplierID int64
	Status     Status
	Page       int
	PerPage    int
}

var (
	// ErrNotFound indicates an unknown order.
	ErrNotFound = errors.New("orders: order not found")
	// ErrEmptyLines indicates an order without lines.
	ErrEmptyLines = errors.New("orders: order requires at least one line")
	// ErrInvalidLine indicates a line with non-positive quantity or negative cost.
	ErrInvalidLine = errors.New("orders: line quantity must be positive and unit cost non-negative")
	// ErrNotEditable indicates a mutation against an order past PRE_ORDER.
	ErrNotEditable = errors.New("orders: only pre-orders can be edited or deleted")
	// ErrInvalidStatusTransition indicates a skipped or backward lifecycle step.
	ErrInvalidStatusTransition = errors.New("orders: status can only advance one step forward")
	// ErrTerminalStatus indicates an advance on an already paid order.
	ErrTerminalStatus = errors.New("orders: order already reached final status")
	// ErrHasPayments indicates a delete against an order with registered payments.
	ErrHasPayments = errors.New("orders: order with payments cannot be deleted")
)
