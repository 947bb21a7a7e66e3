package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const columns = `id, name, location, responsible, capacity, is_active, created_at, updated_at`

func (r *PostgresRepository) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	var (
		conds []string
		args  []any
	)
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conds = append(conds, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM warehouses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filters.Limit, filters.Offset())
	query := fmt.Sprintf(`SELECT `+columns+` FROM warehouses%s ORDER BY name LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Warehouse
	for rows.Next() {
		warehouse, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, warehouse)
	}
	return result, total, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Warehouse, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM warehouses WHERE id = $1`, id))
}

func (r *PostgresRepository) Create(ctx context.Context, w Warehouse) (Warehouse, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name, location, responsible, capacity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		w.Name, w.Location, w.Responsible, w.Capacity, w.IsActive, now).Scan(&w.ID)
	if err != nil {
		return Warehouse{}, err
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return w, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, w Warehouse) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE warehouses
		SET name = $1, location = $2, responsible = $3, capacity = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6`,
		w.Name, w.Location, w.Responsible, w.Capacity, w.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE warehouses SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scan(row pgx.Row) (Warehouse, error) {
	var w Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Location, &w.Responsible, &w.Capacity, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, shared.ErrNotFound
	}
	return w, err
}
