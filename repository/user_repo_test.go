package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapUnique(t *testing.T) {
	username := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}
	email := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"}
	other := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "something_else"}
	notUnique := &pgconn.PgError{Code: "23502"}

	assert.ErrorIs(t, wrapUnique(username), ErrUsernameTaken)
	assert.ErrorIs(t, wrapUnique(email), ErrEmailTaken)
	assert.ErrorIs(t, wrapUnique(other), other)
	assert.NotErrorIs(t, wrapUnique(other), ErrUsernameTaken)
	assert.Same(t, notUnique, wrapUnique(notUnique))

	plain := errors.New("boom")
	assert.Equal(t, plain, wrapUnique(plain))
}
