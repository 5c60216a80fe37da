package gorm

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"gorm.io/gorm"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// Ensure BooksStore implements store.BooksStore
var _ store.BooksStore = (*BooksStore)(nil)

// BooksStore implements store.BooksStore using GORM
type BooksStore struct {
	db *gorm.DB
}

// NewBooksStore creates a new BooksStore
func NewBooksStore(db *gorm.DB) *BooksStore {
	return &BooksStore{db: db}
}

// ListBooks returns the books owned by filter.OwnerID
func (s *BooksStore) ListBooks(filter store.BookFilter) ([]model.Book, error) {
	query := s.db.Where("owner_id = ?", filter.OwnerID)

	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(
			"(title ILIKE ? OR author ILIKE ? OR isbn ILIKE ? OR genre ILIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	books := []model.Book{}
	if err := query.Order("id").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// FetchBook returns the book with the given id
func (s *BooksStore) FetchBook(id uint) (*model.Book, error) {
	var book model.Book
	tx := s.db.First(&book, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrBookNotFound
		}
		return nil, tx.Error
	}
	return &book, nil
}

// CreateBook inserts book
func (s *BooksStore) CreateBook(book *model.Book) error {
	return mapBookError(s.db.Create(book).Error)
}

// UpdateBook writes every mutable column of book
func (s *BooksStore) UpdateBook(book *model.Book) error {
	tx := s.db.Model(&model.Book{}).Where("id = ?", book.ID).Updates(map[string]interface{}{
		"title":          book.Title,
		"author":         book.Author,
		"isbn":           book.ISBN,
		"published_date": book.PublishedDate,
		"genre":          book.Genre,
		"description":    book.Description,
		"cover_image":    book.CoverImage,
		"is_available":   book.IsAvailable,
		"library_id":     book.LibraryID,
	})
	if tx.Error != nil {
		return mapBookError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return store.ErrBookNotFound
	}
	return nil
}

// DeleteBook removes the book with the given id
func (s *BooksStore) DeleteBook(id uint) error {
	tx := s.db.Delete(&model.Book{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrBookNotFound
	}
	return nil
}

func mapBookError(err error) error {
	switch {
	case err == nil:
		return nil
	case isViolation(err, pgerrcode.UniqueViolation, constraintBooksISBNKey):
		return store.ErrDuplicateISBN
	case isViolation(err, pgerrcode.ForeignKeyViolation, constraintBooksLibraryFKey):
		return store.ErrLibraryNotFound
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
