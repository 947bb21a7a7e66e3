package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lightwin075/RossiChatllm2/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, int, error)
}

// TxRepository exposes the transactional operations used by the service.
// Line replacement is wholesale: edits delete the full line set and insert
// the recomputed one, never patch rows in place.
type TxRepository interface {
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	InsertOrder(ctx context.Context, order Order) (Order, error)
	UpdateOrder(ctx context.Context, order Order) error
	DeleteOrder(ctx context.Context, id int64) error
	ReplaceLines(ctx context.Context, orderID int64, lines []Line) ([]Line, error)
	PaymentCount(ctx context.Context, orderID int64) (int, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the purchase-order workflow.
type Service struct {
	logger  *slog.Logger
	repo    RepositoryPort
	audit   AuditPort
	taxRate decimal.Decimal
}

// NewService builds Service. taxRate is the default percentage applied when
// an order carries none.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditPort, taxRate decimal.Decimal) *Service {
	if taxRate.IsZero() {
		taxRate = DefaultTaxRate
	}
	return &Service{logger: logger, repo: repo, audit: audit, taxRate: taxRate}
}

// LineInput is one requested order position.
type LineInput struct {
	ProductID int64
	Qty       decimal.Decimal
	UnitCost  decimal.Decimal
}

// CreateInput describes a new order.
type CreateInput struct {
	SupplierID       int64
	EstimatedArrival *time.Time
	TaxRate          *decimal.Decimal
	Note             string
	Lines            []LineInput
	ActorID          int64
}

// EditInput replaces the mutable fields of a pre-order.
type EditInput struct {
	SupplierID       int64
	EstimatedArrival *time.Time
	TaxRate          *decimal.Decimal
	Note             string
	Lines            []LineInput
	ActorID          int64
}

// Create validates the lines, computes totals and persists a new order in
// PRE_ORDER status.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	lines, err := validateLines(input.Lines)
	if err != nil {
		return Order{}, err
	}
	rate := s.taxRate
	if input.TaxRate != nil {
		rate = *input.TaxRate
	}

	var created Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := time.Now().UTC()
		order := Order{
			SupplierID:       input.SupplierID,
			Status:           StatusPreOrder,
			Note:             input.Note,
			EstimatedArrival: input.EstimatedArrival,
			TaxRate:          rate,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		order.Subtotal, order.Tax, order.Total, lines = computeTotals(lines, rate)

		order, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.Lines, err = tx.ReplaceLines(ctx, order.ID, lines)
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return Order{}, shared.MapTxError(err)
	}
	s.recordAudit(ctx, input.ActorID, "orders:create", created.ID, map[string]any{"supplier_id": created.SupplierID, "total": created.Total.String()})
	return created, nil
}

// Edit replaces lines and header fields of a pre-order and recomputes totals
// in the same transaction.
func (s *Service) Edit(ctx context.Context, id int64, input EditInput) (Order, error) {
	lines, err := validateLines(input.Lines)
	if err != nil {
		return Order{}, err
	}

	var updated Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusPreOrder {
			return ErrNotEditable
		}
		if input.SupplierID != 0 {
			order.SupplierID = input.SupplierID
		}
		if input.EstimatedArrival != nil {
			order.EstimatedArrival = input.EstimatedArrival
		}
		if input.TaxRate != nil {
			order.TaxRate = *input.TaxRate
		}
		order.Note = input.Note
		order.Subtotal, order.Tax, order.Total, lines = computeTotals(lines, order.TaxRate)
		order.UpdatedAt = time.Now().UTC()

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		order.Lines, err = tx.ReplaceLines(ctx, order.ID, lines)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return Order{}, shared.MapTxError(err)
	}
	s.recordAudit(ctx, input.ActorID, "orders:edit", updated.ID, map[string]any{"total": updated.Total.String()})
	return updated, nil
}

// Advance moves the order to target, which must be the immediate successor
// of the current status. The matching lifecycle timestamp is stamped once and
// never rewritten.
func (s *Service) Advance(ctx context.Context, id int64, target Status, actorID int64) (Order, error) {
	if !target.Valid() {
		return Order{}, ErrInvalidStatusTransition
	}

	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		next, ok := order.Status.Next()
		if !ok {
			return ErrTerminalStatus
		}
		if target != next {
			return ErrInvalidStatusTransition
		}
		now := time.Now().UTC()
		order.Status = target
		order.UpdatedAt = now
		switch target {
		case StatusIssued:
			order.IssuedAt = &now
		case StatusReceived:
			order.ReceivedAt = &now
		case StatusPaid:
			order.PaidAt = &now
		}
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return Order{}, shared.MapTxError(err)
	}
	s.recordAudit(ctx, actorID, "orders:advance", updated.ID, map[string]any{"status": string(updated.Status)})
	return updated, nil
}

// Delete removes a pre-order that has no registered payments. Lines go with
// the order; the movement ledger is untouched because pre-orders never
// touched stock.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != StatusPreOrder {
			return ErrNotEditable
		}
		payments, err := tx.PaymentCount(ctx, order.ID)
		if err != nil {
			return err
		}
		if payments > 0 {
			return ErrHasPayments
		}
		return tx.DeleteOrder(ctx, order.ID)
	})
	if err != nil {
		return shared.MapTxError(err)
	}
	s.recordAudit(ctx, actorID, "orders:delete", id, nil)
	return nil
}

// Clone copies supplier, arrival and lines into a fresh PRE_ORDER with a new
// number and no lifecycle timestamps. Unit costs are copied as of the source
// order, not re-priced.
func (s *Service) Clone(ctx context.Context, id int64, actorID int64) (Order, error) {
	source, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	inputs := make([]LineInput, len(source.Lines))
	for i, line := range source.Lines {
		inputs[i] = LineInput{ProductID: line.ProductID, Qty: line.Qty, UnitCost: line.UnitCost}
	}
	rate := source.TaxRate
	clone, err := s.Create(ctx, CreateInput{
		SupplierID:       source.SupplierID,
		EstimatedArrival: source.EstimatedArrival,
		TaxRate:          &rate,
		Note:             source.Note,
		Lines:            inputs,
		ActorID:          actorID,
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, actorID, "orders:clone", clone.ID, map[string]any{"source_id": id})
	return clone, nil
}

// Get returns one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// List returns orders matching the filter, most recent first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, int, error) {
	if filter.PerPage <= 0 || filter.PerPage > 200 {
		filter.PerPage = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.repo.ListOrders(ctx, filter)
}

func validateLines(inputs []LineInput) ([]Line, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyLines
	}
	lines := make([]Line, len(inputs))
	for i, input := range inputs {
		if input.ProductID == 0 || !input.Qty.IsPositive() || input.UnitCost.IsNegative() {
			return nil, ErrInvalidLine
		}
		lines[i] = Line{ProductID: input.ProductID, Qty: input.Qty, UnitCost: input.UnitCost}
	}
	return lines, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
