// Package db holds the SQL migrations for the catalog schema.
package db

import "embed"

// Migrations contains migrations/*.sql for builds tagged embed_migrations
//
//go:embed migrations
var Migrations embed.FS
