// Package model defines the database models for the catalog.
//
// This package contains GORM models that map to the schema created by the
// migrations in db/migrations.
//
// # Core Models
//
//   - User: an account that can sign in, identified by email
//   - Library: a named collection owned by a user
//   - Book: a catalog entry that belongs to a library and is owned by a user
//
// Ownership is recorded as a user id on each Library (user_id) and Book
// (owner_id). It is set when the row is created and is never changed by an
// update. A book's owner may differ from the owner of its library.
//
// # Database Schema
//
//   - users: accounts and bcrypt password hashes
//   - libraries: user-owned collections
//   - books: catalog entries, referencing libraries and users
//   - audit_messages: persisted audit events
package model
