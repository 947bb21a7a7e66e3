package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const columns = `id, code, name, description, unit, storage_mode, min_stock, requires_expiry, is_active, created_at, updated_at`

func (r *PostgresRepository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var (
		conds []string
		args  []any
	)
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conds = append(conds, fmt.Sprintf("(search_name LIKE $%d OR LOWER(code) LIKE $%[1]d)", len(args)))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filters.Limit, filters.Offset())
	query := fmt.Sprintf(`SELECT `+columns+` FROM products%s ORDER BY code LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		product, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, product)
	}
	return result, total, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Product, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE id = $1`, id))
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, description, unit, storage_mode, min_stock, requires_expiry, is_active, search_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`,
		p.Code, p.Name, p.Description, p.Unit, string(p.StorageMode), p.MinStock,
		p.RequiresExpiry, p.IsActive, shared.FoldSearch(p.Name), now).Scan(&p.ID)
	if err != nil {
		return Product{}, mapError(err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, p Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET code = $1, name = $2, description = $3, unit = $4, storage_mode = $5,
		    min_stock = $6, requires_expiry = $7, is_active = $8, search_name = $9, updated_at = NOW()
		WHERE id = $10`,
		p.Code, p.Name, p.Description, p.Unit, string(p.StorageMode),
		p.MinStock, p.RequiresExpiry, p.IsActive, shared.FoldSearch(p.Name), id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MovementCheck answers whether a product appears in the ledger.
type MovementCheck struct {
	pool *pgxpool.Pool
}

func NewMovementCheck(pool *pgxpool.Pool) *MovementCheck {
	return &MovementCheck{pool: pool}
}

func (c *MovementCheck) HasMovements(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := c.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE product_id = $1)`, productID).Scan(&exists)
	return exists, err
}

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Unit, &p.StorageMode,
		&p.MinStock, &p.RequiresExpiry, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
