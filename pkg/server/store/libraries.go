package store

import (
	"errors"

	"github.com/wildbranch/wbl-catalog/pkg/model"
)

// ErrLibraryNotFound is returned when a library doesn't exist
var ErrLibraryNotFound = errors.New("library not found")

// ErrLibraryNotEmpty is returned when deleting a library that books still reference
var ErrLibraryNotEmpty = errors.New("library still contains books")

// LibrariesStore abstracts library storage operations
type LibrariesStore interface {
	// ListLibraries returns the libraries owned by ownerID
	ListLibraries(ownerID uint) ([]model.Library, error)

	// ListAllLibraries returns every library
	ListAllLibraries() ([]model.Library, error)

	// FetchLibrary returns the library with the given id.
	// Returns ErrLibraryNotFound if the library doesn't exist.
	FetchLibrary(id uint) (*model.Library, error)

	// CreateLibrary inserts library and sets its ID
	CreateLibrary(library *model.Library) error

	// UpdateLibrary renames the library. Owner is never changed.
	UpdateLibrary(library *model.Library) error

	// DeleteLibrary removes the library with the given id.
	// Returns ErrLibraryNotFound if it doesn't exist and ErrLibraryNotEmpty
	// if any book still references it; in that case nothing is removed.
	DeleteLibrary(id uint) error
}
