package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apidex-io/apidex/internal/domain/entity"
	"github.com/apidex-io/apidex/internal/domain/repository"
)

type APIRepository struct {
	pool *pgxpool.Pool
}

func NewAPIRepository(pool *pgxpool.Pool) *APIRepository {
	return &APIRepository{pool: pool}
}

func (r *APIRepository) Create(ctx context.Context, a *entity.APIEntry) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO apis (user_id, name, description, endpoint, method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, a.UserID, a.Name, a.Description, a.Endpoint, a.Method, a.Status)

	return row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *APIRepository) GetByID(ctx context.Context, userID, id string) (*entity.APIEntry, error) {
	a := &entity.APIEntry{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, endpoint, method, status, created_at, updated_at
		FROM apis
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Endpoint,
		&a.Method, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *APIRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*entity.APIEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM apis WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, description, endpoint, method, status, created_at, updated_at
		FROM apis
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*entity.APIEntry, 0, limit)
	for rows.Next() {
		a := &entity.APIEntry{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.Endpoint,
			&a.Method, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *APIRepository) UpdateFields(ctx context.Context, userID, id string, patch repository.APIPatch) error {
	set := make([]string, 0, 6)
	args := []any{id, userID}

	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("name", patch.Name)
	add("description", patch.Description)
	add("endpoint", patch.Endpoint)
	add("method", patch.Method)
	add("status", patch.Status)

	set = append(set, "updated_at = now()")

	res, err := r.pool.Exec(ctx, `
		UPDATE apis SET `+strings.Join(set, ", ")+` WHERE id = $1 AND user_id = $2
	`, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *APIRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM apis WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.APIRepository = (*APIRepository)(nil)
