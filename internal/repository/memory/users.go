package memory

import (
	"context"
	"slices"
	"time"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/repository"
)

// UserStore is the in-memory repository.UserRepository. Role names are copied onto the
// user at AddToRole time.
type UserStore struct {
	*Store[model.User]
	roles repository.RoleRepository
}

func NewUserStore(roles repository.RoleRepository) *UserStore {
	return &UserStore{
		Store: NewStore(
			func(stored, candidate model.User) bool { return stored.Email == candidate.Email },
			func(u model.User) model.User {
				u.Roles = slices.Clone(u.Roles)
				if u.Roles == nil {
					u.Roles = []string{}
				}
				return u
			},
		),
		roles: roles,
	}
}

func (s *UserStore) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = model.NormalizeEmail(u.Email)
	u.Roles = nil
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return s.Store.Create(ctx, u)
}

func (s *UserStore) Update(ctx context.Context, id int64, apply func(*model.User)) (model.User, error) {
	return s.Store.Update(ctx, id, func(u *model.User) {
		apply(u)
		u.Email = model.NormalizeEmail(u.Email)
		u.UpdatedAt = time.Now().UTC()
	})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = model.NormalizeEmail(email)
	return s.Find(ctx, func(u model.User) bool { return u.Email == email })
}

func (s *UserStore) AddToRole(ctx context.Context, userID, roleID int64) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	_, err = s.Store.Update(ctx, userID, func(u *model.User) {
		if !slices.Contains(u.Roles, role.Name) {
			u.Roles = append(u.Roles, role.Name)
			slices.Sort(u.Roles)
		}
	})
	return err
}

// RoleStore is the in-memory repository.RoleRepository.
type RoleStore struct {
	*Store[model.Role]
}

func NewRoleStore() *RoleStore {
	return &RoleStore{Store: NewStore(
		func(stored, candidate model.Role) bool { return stored.Name == candidate.Name },
		nil,
	)}
}

// NewSeededRoleStore returns a store holding admin (id 1) and user (id 2), matching the migrations.
func NewSeededRoleStore() *RoleStore {
	s := NewRoleStore()
	for _, name := range []string{"admin", "user"} {
		_, _ = s.Create(context.Background(), model.Role{Name: name})
	}
	return s
}

func (s *RoleStore) GetByName(ctx context.Context, name string) (model.Role, error) {
	return s.Find(ctx, func(r model.Role) bool { return r.Name == name })
}

// TxManager runs fn directly; the memory stores have no rollback.
type TxManager struct{}

func (TxManager) WithinTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

// Pinger always reports ready.
type Pinger struct{}

func (Pinger) Ping(context.Context) error { return nil }

var (
	_ repository.UserRepository = (*UserStore)(nil)
	_ repository.RoleRepository = (*RoleStore)(nil)
	_ repository.TxManager      = TxManager{}
	_ repository.Pinger         = Pinger{}
)
