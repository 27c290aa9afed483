package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifiesPgErrors(t *testing.T) {
	dup := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_roll_key"})
	missing := fmt.Errorf("select: %w", &pgconn.PgError{Code: "42P01", Message: `relation "semester_3_1" does not exist`})
	plain := errors.New("connection refused")

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsDuplicateConstraintError(dup, "users_roll_key"))
	assert.False(t, IsDuplicateConstraintError(dup, "users_email_key"))
	assert.False(t, IsUniqueViolation(missing))

	assert.True(t, IsUndefinedTable(missing))
	assert.False(t, IsUndefinedTable(dup))
	assert.False(t, IsUndefinedTable(plain))
	assert.False(t, IsUndefinedTable(nil))
}
