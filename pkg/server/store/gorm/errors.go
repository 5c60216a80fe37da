package gorm

import (
	"errors"

	"github.com/jackc/pgconn"
)

// Constraint names from db/migrations
const (
	constraintUsersEmailKey    = "users_email_key"
	constraintBooksISBNKey     = "books_isbn_key"
	constraintBooksLibraryFKey = "books_library_id_fkey"
)

// pgError unwraps a *pgconn.PgError from err, if there is one
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isViolation(err error, code, constraint string) bool {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
