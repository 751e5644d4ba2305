package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
)

// Constraint names declared by the migrations.
const (
	ConstraintUsernameUnique = "users_username_key"
	ConstraintEmailUnique    = "users_email_key"
	ConstraintNoSelfFollow   = "follows_no_self_follow"
	ConstraintLikesPrimary   = "likes_pkey"
)

// ConstraintError reports which constraint rejected a write. It matches its
// Kind with errors.Is.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505":
		return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
	case "23503":
		return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
	case "23514":
		return &ConstraintError{Kind: ErrCheckViolation, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// IsConstraint reports whether err was raised by the named constraint.
func IsConstraint(err error, constraint string) bool {
	var cErr *ConstraintError
	return errors.As(err, &cErr) && cErr.Constraint == constraint
}
