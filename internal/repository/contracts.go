package repository

import (
	"context"

	"github.com/sampleapi/users-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution. Repositories called with the ctx handed to fn
// join the transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// Entity is anything a generic repository can store: it exposes its id and can
// return a copy of itself carrying a freshly assigned one.
type Entity[T any] interface {
	EntityID() int64
	WithID(id int64) T
}

// Repository is the operation set shared by every entity kind.
// Count ignores paging; List is ordered by id. Missing ids yield ErrNotFound and
// unique-key clashes yield ErrAlreadyExists.
type Repository[T any] interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, p Page) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, v T) (T, error)
	// Update loads id, lets apply mutate the loaded value, then persists it.
	// apply cannot change the id.
	Update(ctx context.Context, id int64, apply func(*T)) (T, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository adds the lookups the identity layer needs on top of the generic set.
type UserRepository interface {
	Repository[model.User]
	GetByEmail(ctx context.Context, email string) (model.User, error)
	// AddToRole records membership; it is idempotent. Unknown user or role yields ErrNotFound.
	AddToRole(ctx context.Context, userID, roleID int64) error
}

// RoleRepository declares persistence operations for roles.
type RoleRepository interface {
	Repository[model.Role]
	GetByName(ctx context.Context, name string) (model.Role, error)
}
