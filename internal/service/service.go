// Package service holds business logic orchestration across repositories and handlers.
// Kept lean: use-case coordination, validation and domain error shaping only.
package service

import (
	"context"
	"errors"

	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInput builds an aggregated validation error, or nil when fe is empty.
// Handlers use it for binding failures so both paths share one envelope.
func NewInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	var v *invalidInputError
	if errors.As(err, &v) {
		return v.Fields()
	}
	return nil
}

// NotFoundError names the missing resource. It unwraps to repository.ErrNotFound.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " does not exist!" }
func (e *NotFoundError) Unwrap() error { return repository.ErrNotFound }

var ErrUserNotFound = &NotFoundError{Resource: "User"}

// NotFoundMessage returns the client-facing message for a not-found error, or "" if err is not one.
func NotFoundMessage(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return ""
}

// UserService defines user-oriented use cases.
type UserService interface {
	// ListUsers returns one window of users plus the unfiltered total.
	ListUsers(ctx context.Context, p pagination.Pagination) (repository.PageResult[model.User], error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateUser(ctx context.Context, vm model.UserViewModel) (model.User, error)
	UpdateUser(ctx context.Context, id int64, patch model.UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
