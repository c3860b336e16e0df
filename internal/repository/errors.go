package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level errors every implementation surfaces instead of driver errors.
// Compare with errors.Is: implementations may wrap them in a ConstraintError.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
)

// ConstraintError names the constraint behind ErrAlreadyExists / ErrConflict.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Constraint
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Constraint returns the violated constraint name carried by err, or "".
func Constraint(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

// MapPgError translates the Postgres error codes higher layers act on; everything else passes through.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return &ConstraintError{Err: ErrAlreadyExists, Constraint: pgErr.ConstraintName}
		case pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation:
			return &ConstraintError{Err: ErrConflict, Constraint: pgErr.ConstraintName}
		}
	}
	return err
}
