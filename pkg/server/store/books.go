package store

import (
	"errors"

	"github.com/wildbranch/wbl-catalog/pkg/model"
)

// ErrBookNotFound is returned when a book doesn't exist
var ErrBookNotFound = errors.New("book not found")

// ErrDuplicateISBN is returned when another book already has the ISBN
var ErrDuplicateISBN = errors.New("a book with this ISBN already exists")

// BookFilter narrows ListBooks
type BookFilter struct {
	OwnerID uint
	// Search matches title, author, isbn or genre case-insensitively
	Search string
	Offset int
	Limit  int
}

// BooksStore abstracts book storage operations
type BooksStore interface {
	// ListBooks returns the books owned by filter.OwnerID ordered by id.
	ListBooks(filter BookFilter) ([]model.Book, error)

	// FetchBook returns the book with the given id.
	// Returns ErrBookNotFound if the book doesn't exist.
	FetchBook(id uint) (*model.Book, error)

	// CreateBook inserts book and sets its ID.
	// Returns ErrLibraryNotFound if book.LibraryID doesn't exist and
	// ErrDuplicateISBN if the ISBN is taken.
	CreateBook(book *model.Book) error

	// UpdateBook writes the mutable fields of book. Owner is never changed.
	// Returns ErrBookNotFound if the row is gone, ErrLibraryNotFound if the
	// book is moved to a missing library and ErrDuplicateISBN on conflict.
	UpdateBook(book *model.Book) error

	// DeleteBook removes the book with the given id.
	// Returns ErrBookNotFound if nothing was deleted.
	DeleteBook(id uint) error
}
