package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightwin075/RossiChatllm2/internal/platform/db"
)

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderColumns = `id, order_number, supplier_id, status, note, estimated_arrival, tax_rate, subtotal, tax_amount, total, issued_at, received_at, paid_at, created_at, updated_at`

func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	order.Lines, err = queryLines(ctx, r.pool, order.ID)
	return order, err
}

func (r *Repository) ListOrders(ctx context.Context, filter Filter) ([]Order, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		conds = append(conds, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT `+orderColumns+` FROM purchase_orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range result {
		result[i].Lines, err = queryLines(ctx, r.pool, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	order, err := scanOrder(r.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Order{}, err
	}
	order.Lines, err = queryLines(ctx, r.tx, order.ID)
	return order, err
}

func (r *txRepo) InsertOrder(ctx context.Context, order Order) (Order, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (supplier_id, status, note, estimated_arrival, tax_rate, subtotal, tax_amount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, order_number`,
		order.SupplierID, string(order.Status), order.Note, order.EstimatedArrival,
		order.TaxRate, order.Subtotal, order.Tax, order.Total,
		order.CreatedAt, order.UpdatedAt).Scan(&order.ID, &order.Number)
	return order, err
}

func (r *txRepo) UpdateOrder(ctx context.Context, order Order) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE purchase_orders
		SET supplier_id = $1, status = $2, note = $3, estimated_arrival = $4,
		    tax_rate = $5, subtotal = $6, tax_amount = $7, total = $8,
		    issued_at = $9, received_at = $10, paid_at = $11, updated_at = $12
		WHERE id = $13`,
		order.SupplierID, string(order.Status), order.Note, order.EstimatedArrival,
		order.TaxRate, order.Subtotal, order.Tax, order.Total,
		order.IssuedAt, order.ReceivedAt, order.PaidAt, order.UpdatedAt, order.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepo) ReplaceLines(ctx context.Context, orderID int64, lines []Line) ([]Line, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return nil, err
	}
	out := make([]Line, len(lines))
	for i, line := range lines {
		line.OrderID = orderID
		err := r.tx.QueryRow(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity, unit_cost, subtotal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			orderID, line.ProductID, line.Qty, line.UnitCost, line.LineTotal).Scan(&line.ID)
		if err != nil {
			return nil, err
		}
		out[i] = line
	}
	return out, nil
}

func (r *txRepo) PaymentCount(ctx context.Context, orderID int64) (int, error) {
	var count int
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM po_payments WHERE order_id = $1`, orderID).Scan(&count)
	return count, err
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, orderID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_cost, subtotal
		FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.Qty, &line.UnitCost, &line.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var order Order
	err := row.Scan(&order.ID, &order.Number, &order.SupplierID, &order.Status, &order.Note,
		&order.EstimatedArrival, &order.TaxRate, &order.Subtotal, &order.Tax, &order.Total,
		&order.IssuedAt, &order.ReceivedAt, &order.PaidAt, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return order, err
}
