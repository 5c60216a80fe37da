// Package store provides storage abstractions for the catalog server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints and the authentication core to be decoupled from the
// specific database implementation. Endpoint tests substitute testify mocks.
//
// # Available Stores
//
//   - UsersStore: account lookup by email, creation, password rotation
//   - BooksStore: book listing, fetch, create, update, delete
//   - LibrariesStore: library listing, fetch, create, update, delete
//   - HealthStore: database connectivity
//
// # Usage
//
//	books := gorm.NewBooksStore(db)
//	book, err := books.FetchBook(42)
//	if err != nil {
//	    if errors.Is(err, store.ErrBookNotFound) {
//	        // Handle not found
//	    }
//	}
//
// Stores report domain failures with the sentinel errors declared here and
// return any other database error unchanged.
package store
