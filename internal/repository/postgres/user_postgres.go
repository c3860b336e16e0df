package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/repository"
)

const (
	sqlSelectUser = `
		SELECT u.id, u.user_name, u.email, u.name, u.tenant_id, u.password_hash, u.created_at, u.updated_at,
		       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id`

	sqlInsertUser = `
		INSERT INTO users (user_name, email, name, tenant_id, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	sqlUpdateUser = `
		UPDATE users
		SET user_name = $2, email = $3, name = $4, tenant_id = $5, password_hash = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	sqlLockUser = `SELECT id FROM users WHERE id = $1 FOR UPDATE`

	sqlAddToRole = `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`
)

type userRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool, tx: NewTxManager(pool)}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.Name, &u.TenantID, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.Roles)
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, err
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (r *userRepository) List(ctx context.Context, p repository.Page) ([]model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	limit, offset := sanitizeLimitOffset(p)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		sqlSelectUser+` GROUP BY u.id ORDER BY u.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	return r.getOne(ctx, sqlSelectUser+` WHERE u.id = $1 GROUP BY u.id`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, sqlSelectUser+` WHERE u.email = $1 GROUP BY u.id`, model.NormalizeEmail(email))
}

func (r *userRepository) getOne(ctx context.Context, sql string, arg any) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	u, err := scanUser(getQ(ctx, r.pool).QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, repository.MapPgError(err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	u.Email = model.NormalizeEmail(u.Email)
	row := getQ(ctx, r.pool).QueryRow(ctx, sqlInsertUser, u.UserName, u.Email, u.Name, u.TenantID, u.PasswordHash)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return model.User{}, repository.MapPgError(err)
	}
	// memberships are added separately through AddToRole
	u.Roles = []string{}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, id int64, apply func(*model.User)) (model.User, error) {
	var out model.User
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		var locked int64
		if err := exec.QueryRow(ctx, sqlLockUser, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}
		u, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		apply(&u)
		u.ID = id
		u.Email = model.NormalizeEmail(u.Email)
		if err := exec.QueryRow(ctx, sqlUpdateUser, u.ID, u.UserName, u.Email, u.Name, u.TenantID, u.PasswordHash).Scan(&u.UpdatedAt); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return model.User{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) AddToRole(ctx context.Context, userID, roleID int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	if _, err := getQ(ctx, r.pool).Exec(ctx, sqlAddToRole, userID, roleID); err != nil {
		err = repository.MapPgError(err)
		if errors.Is(err, repository.ErrConflict) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

var _ repository.UserRepository = (*userRepository)(nil)
