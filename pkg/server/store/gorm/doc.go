// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Postgres constraint violations are translated into the store package's
// sentinel errors by inspecting the *pgconn.PgError SQLSTATE and constraint
// name. Any other error is returned unchanged.
package gorm
