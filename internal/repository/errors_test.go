package repository_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sampleapi/users-service/internal/repository"
)

func TestMapPgError(t *testing.T) {
	assert.NoError(t, repository.MapPgError(nil))

	err := repository.MapPgError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	assert.Equal(t, "users_email_key", repository.Constraint(err))

	err = repository.MapPgError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	assert.Empty(t, repository.Constraint(err))

	err = repository.MapPgError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "user_roles_role_id_fkey"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	other := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	err = repository.MapPgError(other)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.NotErrorIs(t, err, repository.ErrConflict)

	boom := errors.New("boom")
	assert.Equal(t, boom, repository.MapPgError(boom))
}

func TestConstraintError_Message(t *testing.T) {
	err := &repository.ConstraintError{Err: repository.ErrAlreadyExists, Constraint: "users_email_key"}
	assert.Equal(t, "already exists: users_email_key", err.Error())
	assert.Equal(t, "already exists", (&repository.ConstraintError{Err: repository.ErrAlreadyExists}).Error())
}
