package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sampleapi/users-service/internal/identity"
	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/repository"
)

const (
	msgEmailInUse   = "Email is already in use"
	msgRoleNotFound = "Role does not exist"
)

type userService struct {
	users           repository.UserRepository
	identity        identity.Provider
	tx              repository.TxManager
	defaultTenantID int64
	log             zerolog.Logger
}

func NewUserService(users repository.UserRepository, idp identity.Provider, tx repository.TxManager, defaultTenantID int64, logger zerolog.Logger) UserService {
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	return &userService{users: users, identity: idp, tx: tx, defaultTenantID: defaultTenantID, log: l}
}

// ListUsers counts and fetches the window concurrently; the two reads are not snapshot-consistent.
func (s *userService) ListUsers(ctx context.Context, p pagination.Pagination) (repository.PageResult[model.User], error) {
	var (
		total int
		items []model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		total = n
		return err
	})
	g.Go(func() error {
		out, err := s.users.List(gctx, repository.Page{Limit: p.Limit, Offset: p.Skip})
		items = out
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int("page", p.Page).Int("limit", p.Limit).Msg("list users failed")
		return repository.PageResult[model.User]{}, err
	}
	if items == nil {
		items = []model.User{}
	}
	return repository.PageResult[model.User]{Items: items, Total: total}, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (model.User, error) {
	if id <= 0 {
		return model.User{}, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, s.notFound(err)
	}
	return u, nil
}

// CreateUser runs the checks in order and stops at the first failure:
// e-mail taken, role missing, credential policy. The user and its role membership
// are then written in one transaction.
func (s *userService) CreateUser(ctx context.Context, vm model.UserViewModel) (model.User, error) {
	start := time.Now()
	email := model.NormalizeEmail(vm.Email)

	if _, err := s.identity.FindByEmail(ctx, email); err == nil {
		return model.User{}, NewInvalidInput([]FieldError{{Field: "Email", Message: msgEmailInUse}})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	role, err := s.identity.FindRoleByID(ctx, vm.RoleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, NewInvalidInput([]FieldError{{Field: "Role", Message: msgRoleNotFound}})
		}
		return model.User{}, err
	}

	candidate := model.User{
		UserName: email,
		Email:    email,
		Name:     strings.TrimSpace(vm.Name),
		TenantID: s.defaultTenantID,
	}

	var created model.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.identity.CreateWithCredential(ctx, candidate, vm.Password)
		if err != nil {
			return err
		}
		if err := s.identity.AddToRole(ctx, u, role.Name); err != nil {
			return err
		}
		created, err = s.users.GetByID(ctx, u.ID)
		return err
	})
	if err != nil {
		var idErr *identity.Error
		if errors.As(err, &idErr) {
			fe := identityFieldErrors(idErr)
			s.log.Debug().Interface("field_errors", fe).Msg("user rejected by identity provider")
			return model.User{}, NewInvalidInput(fe)
		}
		s.log.Error().Err(err).Str("email", email).Int64("role_id", vm.RoleID).Msg("create user failed")
		return model.User{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("user_id", created.ID).Str("role", role.Name).Msg("user created")
	return created, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, patch model.UserPatch) (model.User, error) {
	if id <= 0 {
		return model.User{}, ErrUserNotFound
	}
	// a missing user is reported before anything about the patch itself
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return model.User{}, s.notFound(err)
	}
	var ferrs []FieldError
	if patch.UserName != nil && strings.TrimSpace(*patch.UserName) == "" {
		ferrs = append(ferrs, FieldError{Field: "UserName", Message: "must not be empty"})
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		ferrs = append(ferrs, FieldError{Field: "Email", Message: "must not be empty"})
	}
	if err := NewInvalidInput(ferrs); err != nil {
		return model.User{}, err
	}

	out, err := s.users.Update(ctx, id, patch.Apply)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.User{}, NewInvalidInput([]FieldError{{Field: "Email", Message: msgEmailInUse}})
		}
		return model.User{}, s.notFound(err)
	}
	s.log.Info().Int64("user_id", id).Msg("user updated")
	return out, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrUserNotFound
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return s.notFound(err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *userService) notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	s.log.Error().Err(err).Msg("user repository call failed")
	return err
}

// identityFieldErrors files each identity failure under the request field it concerns.
func identityFieldErrors(e *identity.Error) []FieldError {
	out := make([]FieldError, 0, len(e.Failures))
	for _, f := range e.Failures {
		field := "Password"
		switch f.Code {
		case "DuplicateEmail":
			field = "Email"
		case "InvalidUserName":
			field = "UserName"
		case "InvalidRoleName":
			field = "Role"
		}
		msg := f.Description
		if field == "Email" {
			msg = msgEmailInUse
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}
