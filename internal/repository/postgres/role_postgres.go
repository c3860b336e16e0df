package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/repository"
)

type roleRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewRoleRepository(pool *pgxpool.Pool) repository.RoleRepository {
	return &roleRepository{pool: pool, tx: NewTxManager(pool)}
}

func (r *roleRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (r *roleRepository) List(ctx context.Context, p repository.Page) ([]model.Role, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	limit, offset := sanitizeLimitOffset(p)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT id, name FROM roles ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Role])
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return roles, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (model.Role, error) {
	return r.getOne(ctx, `SELECT id, name FROM roles WHERE id = $1`, id)
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (model.Role, error) {
	return r.getOne(ctx, `SELECT id, name FROM roles WHERE name = $1`, name)
}

func (r *roleRepository) getOne(ctx context.Context, sql string, arg any) (model.Role, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Role{}, err
	}
	var out model.Role
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, arg).Scan(&out.ID, &out.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Role{}, repository.ErrNotFound
		}
		return model.Role{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *roleRepository) Create(ctx context.Context, role model.Role) (model.Role, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Role{}, err
	}
	if err := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, role.Name).Scan(&role.ID); err != nil {
		return model.Role{}, repository.MapPgError(err)
	}
	return role, nil
}

func (r *roleRepository) Update(ctx context.Context, id int64, apply func(*model.Role)) (model.Role, error) {
	var out model.Role
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		role, err := r.getOne(ctx, `SELECT id, name FROM roles WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		apply(&role)
		role.ID = id
		if _, err := getQ(ctx, r.pool).Exec(ctx, `UPDATE roles SET name = $2 WHERE id = $1`, role.ID, role.Name); err != nil {
			return err
		}
		out = role
		return nil
	})
	if err != nil {
		return model.Role{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.RoleRepository = (*roleRepository)(nil)
