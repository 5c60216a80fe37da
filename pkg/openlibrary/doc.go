// Package openlibrary looks up book metadata by ISBN on OpenLibrary
// (https://openlibrary.org/dev/docs/api/books). It is used to pre-fill the
// add-book form and never writes to the catalog.
package openlibrary
