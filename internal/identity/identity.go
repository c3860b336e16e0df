// Package identity manages credentials and role membership on top of the user and role
// repositories. Passwords are checked against a policy and stored as bcrypt hashes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/repository"
)

// Provider is what the user service needs from the identity layer.
type Provider interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindRoleByID(ctx context.Context, id int64) (model.Role, error)
	// CreateWithCredential hashes password and persists u. Policy violations come back as *Error.
	CreateWithCredential(ctx context.Context, u model.User, password string) (model.User, error)
	AddToRole(ctx context.Context, u model.User, role string) error
}

// Failure is one reason the identity layer refused an operation.
type Failure struct {
	Code        string
	Description string
}

// Error carries every failure found, not just the first.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Description)
	}
	return "identity: " + strings.Join(parts, "; ")
}

// PasswordPolicy mirrors the usual identity defaults.
type PasswordPolicy struct {
	RequiredLength         int
	RequiredUniqueChars    int
	RequireDigit           bool
	RequireLowercase       bool
	RequireUppercase       bool
	RequireNonAlphanumeric bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		RequiredLength:         6,
		RequiredUniqueChars:    1,
		RequireDigit:           true,
		RequireLowercase:       true,
		RequireUppercase:       true,
		RequireNonAlphanumeric: true,
	}
}

// Validate returns every rule the password breaks.
func (p PasswordPolicy) Validate(password string) []Failure {
	var out []Failure
	if len([]rune(password)) < p.RequiredLength {
		out = append(out, Failure{"PasswordTooShort", fmt.Sprintf("Passwords must be at least %d characters.", p.RequiredLength)})
	}

	var digit, lower, upper, other bool
	unique := map[rune]struct{}{}
	for _, r := range password {
		unique[r] = struct{}{}
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}
	if p.RequireNonAlphanumeric && !other {
		out = append(out, Failure{"PasswordRequiresNonAlphanumeric", "Passwords must have at least one non alphanumeric character."})
	}
	if p.RequireDigit && !digit {
		out = append(out, Failure{"PasswordRequiresDigit", "Passwords must have at least one digit ('0'-'9')."})
	}
	if p.RequireLowercase && !lower {
		out = append(out, Failure{"PasswordRequiresLower", "Passwords must have at least one lowercase ('a'-'z')."})
	}
	if p.RequireUppercase && !upper {
		out = append(out, Failure{"PasswordRequiresUpper", "Passwords must have at least one uppercase ('A'-'Z')."})
	}
	if len(unique) < p.RequiredUniqueChars {
		out = append(out, Failure{"PasswordRequiresUniqueChars", fmt.Sprintf("Passwords must use at least %d different characters.", p.RequiredUniqueChars)})
	}
	return out
}

type Manager struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	policy PasswordPolicy
	cost   int
	log    zerolog.Logger
}

type Option func(*Manager)

func WithPasswordPolicy(p PasswordPolicy) Option { return func(m *Manager) { m.policy = p } }

// WithBcryptCost is mainly for tests, where the default cost dominates runtime.
func WithBcryptCost(cost int) Option { return func(m *Manager) { m.cost = cost } }

func NewManager(users repository.UserRepository, roles repository.RoleRepository, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		users:  users,
		roles:  roles,
		policy: DefaultPasswordPolicy(),
		cost:   bcrypt.DefaultCost,
		log:    logger.With().Str("module", "identity").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return m.users.GetByEmail(ctx, email)
}

func (m *Manager) FindRoleByID(ctx context.Context, id int64) (model.Role, error) {
	return m.roles.GetByID(ctx, id)
}

func (m *Manager) CreateWithCredential(ctx context.Context, u model.User, password string) (model.User, error) {
	failures := m.policy.Validate(password)
	if strings.TrimSpace(u.UserName) == "" {
		failures = append(failures, Failure{"InvalidUserName", "User name is required."})
	}
	if len(failures) > 0 {
		m.log.Debug().Int("failures", len(failures)).Msg("credential rejected by policy")
		return model.User{}, &Error{Failures: failures}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	created, err := m.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.User{}, &Error{Failures: []Failure{{"DuplicateEmail", fmt.Sprintf("Email '%s' is already taken.", u.Email)}}}
		}
		return model.User{}, err
	}
	return created, nil
}

func (m *Manager) AddToRole(ctx context.Context, u model.User, role string) error {
	r, err := m.roles.GetByName(ctx, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Error{Failures: []Failure{{"InvalidRoleName", fmt.Sprintf("Role %s does not exist.", role)}}}
		}
		return err
	}
	return m.users.AddToRole(ctx, u.ID, r.ID)
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(u model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

var _ Provider = (*Manager)(nil)
