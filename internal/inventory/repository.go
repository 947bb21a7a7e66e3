package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightwin075/RossiChatllm2/internal/platform/db"
)

// Repository persists the ledger, batches and stock counters in PostgreSQL.
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

const productColumns = `id, code, name, unit, storage_mode, min_stock, requires_expiry, is_active`

func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *Repository) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

const movementColumns = `seq, movement_type, product_id, warehouse_id, src_warehouse_id, batch_id, dst_batch_id, qty, reason, actor_id, ref_id, created_at`

func (r *Repository) QueryMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ProductID != 0 {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.WarehouseID != 0 {
		add("(warehouse_id = $%d OR src_warehouse_id = $%[1]d)", filter.WarehouseID)
	}
	if filter.Type != "" {
		add("movement_type = $%d", string(filter.Type))
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at <= $%d", filter.To)
	}
	if filter.BeforeSeq != 0 {
		add("seq < $%d", filter.BeforeSeq)
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(` ORDER BY seq DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		mov, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, mov)
	}
	return movements, rows.Err()
}

const batchColumns = `id, code, product_id, warehouse_id, batch_number, initial_quantity, current_quantity, expiry_date, created_at`

func (r *Repository) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ProductID != 0 {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.WarehouseID != 0 {
		add("warehouse_id = $%d", filter.WarehouseID)
	}
	if filter.ExpiringWithinDays > 0 {
		add("expiry_date IS NOT NULL AND expiry_date <= NOW() + ($%d || ' days')::interval", filter.ExpiringWithinDays)
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM batches`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT `+batchColumns+` FROM batches%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, batch)
	}
	return batches, total, rows.Err()
}

func (r *Repository) SumBatchQuantities(ctx context.Context, productID, warehouseID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(current_quantity), 0) FROM batches WHERE product_id = $1`
	args := []any{productID}
	if warehouseID != 0 {
		query += ` AND warehouse_id = $2`
		args = append(args, warehouseID)
	}
	var qty float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&qty)
	return qty, err
}

func (r *Repository) GetCounter(ctx context.Context, productID, warehouseID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_counters WHERE product_id = $1`
	args := []any{productID}
	if warehouseID != 0 {
		query += ` AND warehouse_id = $2`
		args = append(args, warehouseID)
	}
	var qty float64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&qty)
	return qty, err
}

// ReplayStock folds the whole ledger for one product. Receipts add, issues
// subtract, adjustments carry their sign. Transfers net to zero product-wide;
// scoped to a warehouse they add at the destination and subtract at the
// source.
func (r *Repository) ReplayStock(ctx context.Context, productID, warehouseID int64) (float64, error) {
	var qty float64
	var err error
	if warehouseID == 0 {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(CASE movement_type
				WHEN 'RECEIPT' THEN qty
				WHEN 'ISSUE' THEN -qty
				WHEN 'ADJUSTMENT' THEN qty
				ELSE 0 END), 0)
			FROM stock_movements WHERE product_id = $1`, productID).Scan(&qty)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(CASE
				WHEN movement_type = 'RECEIPT' AND warehouse_id = $2 THEN qty
				WHEN movement_type = 'ISSUE' AND warehouse_id = $2 THEN -qty
				WHEN movement_type = 'ADJUSTMENT' AND warehouse_id = $2 THEN qty
				WHEN movement_type = 'TRANSFER' AND warehouse_id = $2 THEN qty
				WHEN movement_type = 'TRANSFER' AND src_warehouse_id = $2 THEN -qty
				ELSE 0 END), 0)
			FROM stock_movements WHERE product_id = $1`, productID, warehouseID).Scan(&qty)
	}
	return qty, err
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (r *txRepo) LockProduct(ctx context.Context, id int64) error {
	var locked int64
	err := r.tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	return err
}

func (r *txRepo) GetBatch(ctx context.Context, id int64) (Batch, error) {
	return scanBatch(r.tx.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = $1`, id))
}

func (r *txRepo) NextBatchNumber(ctx context.Context, productID int64) (int, error) {
	var number int
	err := r.tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(batch_number), 0) + 1 FROM batches WHERE product_id = $1`, productID).Scan(&number)
	return number, err
}

func (r *txRepo) InsertBatch(ctx context.Context, batch Batch) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO batches (code, product_id, warehouse_id, batch_number, initial_quantity, current_quantity, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		batch.Code, batch.ProductID, batch.WarehouseID, batch.BatchNumber,
		batch.InitialQuantity, batch.CurrentQuantity, batch.ExpiryDate, batch.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepo) IncrementBatch(ctx context.Context, batchID int64, qty float64) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE batches SET current_quantity = current_quantity + $1 WHERE id = $2`, qty, batchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// DecrementBatch is a conditional update: the balance check and the debit are
// one statement, so concurrent debits cannot both pass against the same
// insufficient balance.
func (r *txRepo) DecrementBatch(ctx context.Context, batchID int64, qty float64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `
		UPDATE batches SET current_quantity = current_quantity - $1
		WHERE id = $2 AND current_quantity >= $1`, qty, batchID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepo) AdjustCounter(ctx context.Context, productID, warehouseID int64, delta float64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO stock_counters (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = stock_counters.quantity + EXCLUDED.quantity, updated_at = NOW()`,
		productID, warehouseID, delta)
	return err
}

func (r *txRepo) DecrementCounter(ctx context.Context, productID, warehouseID int64, qty float64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `
		UPDATE stock_counters SET quantity = quantity - $1, updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3 AND quantity >= $1`,
		qty, productID, warehouseID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepo) InsertMovement(ctx context.Context, mov Movement) (int64, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO stock_movements (movement_type, product_id, warehouse_id, src_warehouse_id, batch_id, dst_batch_id, qty, reason, actor_id, ref_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`,
		string(mov.Type), mov.ProductID, mov.WarehouseID,
		nullInt64(mov.SrcWarehouseID), nullInt64(mov.BatchID), nullInt64(mov.DstBatchID),
		mov.Qty, mov.Reason, mov.ActorID, nullString(mov.RefID), mov.CreatedAt).Scan(&seq)
	return seq, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.StorageMode, &p.MinStock, &p.RequiresExpiry, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func scanBatch(row rowScanner) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Code, &b.ProductID, &b.WarehouseID, &b.BatchNumber, &b.InitialQuantity, &b.CurrentQuantity, &b.ExpiryDate, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, ErrBatchNotFound
	}
	return b, err
}

func scanMovement(row rowScanner) (Movement, error) {
	var (
		mov            Movement
		srcWarehouseID *int64
		batchID        *int64
		dstBatchID     *int64
		refID          *string
	)
	err := row.Scan(&mov.Seq, &mov.Type, &mov.ProductID, &mov.WarehouseID, &srcWarehouseID, &batchID, &dstBatchID, &mov.Qty, &mov.Reason, &mov.ActorID, &refID, &mov.CreatedAt)
	if err != nil {
		return Movement{}, err
	}
	if srcWarehouseID != nil {
		mov.SrcWarehouseID = *srcWarehouseID
	}
	if batchID != nil {
		mov.BatchID = *batchID
	}
	if dstBatchID != nil {
		mov.DstBatchID = *dstBatchID
	}
	if refID != nil {
		mov.RefID = *refID
	}
	return mov, nil
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
