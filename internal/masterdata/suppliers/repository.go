package suppliers

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

const columns = `id, supplier_type, name, ruc, email, phones, address, is_active, created_at, updated_at`

func (r *PostgresRepository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var (
		conds []string
		args  []any
	)
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR ruc LIKE $%[1]d)", len(args)))
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filters.Limit, filters.Offset())
	query := fmt.Sprintf(`SELECT `+columns+` FROM suppliers%s ORDER BY name LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Supplier
	for rows.Next() {
		supplier, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, supplier)
	}
	return result, total, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Supplier, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM suppliers WHERE id = $1`, id))
}

func (r *PostgresRepository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (supplier_type, name, ruc, email, phones, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`,
		string(s.Type), s.Name, s.RUC, s.Email, s.Phones, s.Address, s.IsActive, now).Scan(&s.ID)
	if err != nil {
		return Supplier{}, mapError(err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE suppliers
		SET supplier_type = $1, name = $2, ruc = $3, email = $4, phones = $5, address = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8`,
		string(s.Type), s.Name, s.RUC, s.Email, s.Phones, s.Address, s.IsActive, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scan(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Type, &s.Name, &s.RUC, &s.Email, &s.Phones, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrNotFound
	}
	return s, err
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
