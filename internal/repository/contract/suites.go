// Package contract holds behavioural suites every repository implementation must pass.
// Implementations call the Run* functions from their own tests with a factory that
// returns a fresh, empty repository and a cleanup func.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/repository"
)

type UserFactory func(t *testing.T) (users repository.UserRepository, roles repository.RoleRepository, cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, users repository.UserRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func newUser(i int) model.User {
	email := fmt.Sprintf("user%d@example.com", i)
	return model.User{UserName: email, Email: email, Name: fmt.Sprintf("User %d", i), TenantID: 2, PasswordHash: "hash"}
}

func RunUserRepositoryContract(t *testing.T, makeRepo UserFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, newUser(1))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID <= 0 {
			t.Fatalf("expected assigned id, got %d", created.ID)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Email != "user1@example.com" || got.Name != "User 1" || got.TenantID != 2 || got.PasswordHash != "hash" {
			t.Fatalf("mismatch: %+v", got)
		}
		if got.Roles == nil || len(got.Roles) != 0 {
			t.Fatalf("expected empty non-nil roles, got %#v", got.Roles)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), 999999)
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("get_by_email_normalised", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, newUser(2))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		got, err := repo.GetByEmail(ctx, "  USER2@example.com ")
		if err != nil || got.ID != created.ID {
			t.Fatalf("expected user %d, got %+v err=%v", created.ID, got, err)
		}
		if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate_email_already_exists", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, newUser(3)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		dup := newUser(3)
		dup.Email = "USER3@example.com"
		if _, err := repo.Create(ctx, dup); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		n, err := repo.Count(ctx)
		if err != nil || n != 1 {
			t.Fatalf("expected 1 row, got %d err=%v", n, err)
		}
	})

	t.Run("count_and_list_pagination", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 7; i++ {
			if _, err := repo.Create(ctx, newUser(100+i)); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		n, err := repo.Count(ctx)
		if err != nil || n != 7 {
			t.Fatalf("count: got %d err=%v", n, err)
		}
		first, err := repo.List(ctx, repository.Page{Limit: 3, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		last, err := repo.List(ctx, repository.Page{Limit: 3, Offset: 6})
		if err != nil {
			t.Fatalf("list2: %v", err)
		}
		if len(first) != 3 || len(last) != 1 {
			t.Fatalf("unexpected pages: %d, %d", len(first), len(last))
		}
		if !(first[0].ID < first[1].ID && first[1].ID < first[2].ID && first[2].ID < last[0].ID) {
			t.Fatalf("list not ordered by id")
		}
		beyond, err := repo.List(ctx, repository.Page{Limit: 3, Offset: 30})
		if err != nil || len(beyond) != 0 {
			t.Fatalf("expected empty page past the end, got %d err=%v", len(beyond), err)
		}
	})

	t.Run("list_empty_ok", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		list, err := repo.List(context.Background(), repository.Page{Limit: 10})
		if err != nil || len(list) != 0 {
			t.Fatalf("expected empty list, got %d err=%v", len(list), err)
		}
	})

	t.Run("update_merges_and_keeps_id", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, newUser(4))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		name := "X"
		out, err := repo.Update(ctx, created.ID, func(u *model.User) {
			model.UserPatch{Name: &name}.Apply(u)
			u.ID = 12345
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if out.ID != created.ID || out.Name != "X" || out.Email != created.Email {
			t.Fatalf("unexpected update result: %+v", out)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil || got.Name != "X" || got.Email != created.Email || got.TenantID != created.TenantID {
			t.Fatalf("stored entity not merged: %+v err=%v", got, err)
		}
	})

	t.Run("update_not_found", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.Update(context.Background(), 424242, func(*model.User) {})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update_email_clash", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		a, _ := repo.Create(ctx, newUser(5))
		if _, err := repo.Create(ctx, newUser(6)); err != nil {
			t.Fatalf("seed: %v", err)
		}
		_, err := repo.Update(ctx, a.ID, func(u *model.User) { u.Email = "user6@example.com" })
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("delete_then_get", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, newUser(7))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("add_to_role", func(t *testing.T) {
		repo, roles, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		admin, err := roles.GetByName(ctx, "admin")
		if err != nil {
			t.Fatalf("seeded admin role missing: %v", err)
		}
		created, err := repo.Create(ctx, newUser(8))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := repo.AddToRole(ctx, created.ID, admin.ID); err != nil {
				t.Fatalf("add to role (%d): %v", i, err)
			}
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil || len(got.Roles) != 1 || got.Roles[0] != "admin" {
			t.Fatalf("expected [admin], got %#v err=%v", got.Roles, err)
		}
		if err := repo.AddToRole(ctx, created.ID, 987654); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
		}
		if err := repo.AddToRole(ctx, 987654, admin.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
		}
	})
}

func RunRoleRepositoryContract(t *testing.T, makeRepo UserFactory) {
	t.Helper()

	t.Run("seeded_roles", func(t *testing.T) {
		_, roles, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for _, name := range []string{"admin", "user"} {
			r, err := roles.GetByName(ctx, name)
			if err != nil {
				t.Fatalf("role %s: %v", name, err)
			}
			byID, err := roles.GetByID(ctx, r.ID)
			if err != nil || byID.Name != name {
				t.Fatalf("role by id %d: %+v err=%v", r.ID, byID, err)
			}
		}
	})

	t.Run("crud", func(t *testing.T) {
		_, roles, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		before, _ := roles.Count(ctx)
		r, err := roles.Create(ctx, model.Role{Name: "auditor"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := roles.Create(ctx, model.Role{Name: "auditor"}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if _, err := roles.Update(ctx, r.ID, func(role *model.Role) { role.Name = "reviewer" }); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := roles.GetByName(ctx, "reviewer")
		if err != nil || got.ID != r.ID {
			t.Fatalf("renamed role: %+v err=%v", got, err)
		}
		list, err := roles.List(ctx, repository.Page{Limit: 100})
		if err != nil || len(list) != before+1 {
			t.Fatalf("list: %d err=%v", len(list), err)
		}
		if err := roles.Delete(ctx, r.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := roles.GetByID(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

// RunTxManagerContract checks commit visibility. rollback is only asserted for
// implementations that can undo writes.
func RunTxManagerContract(t *testing.T, makeTx TxFactory, rollback bool) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, users, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := users.Create(ctx, newUser(900))
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := users.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("error_is_returned", func(t *testing.T) {
		tx, users, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		marker := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := users.Create(ctx, newUser(901))
			if err != nil {
				return err
			}
			createdID = out.ID
			return marker
		})
		if !errors.Is(err, marker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if !rollback {
			return
		}
		if _, err := users.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
