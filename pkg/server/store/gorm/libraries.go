package gorm

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// Ensure LibrariesStore implements store.LibrariesStore
var _ store.LibrariesStore = (*LibrariesStore)(nil)

// LibrariesStore implements store.LibrariesStore using GORM
type LibrariesStore struct {
	db *gorm.DB
}

// NewLibrariesStore creates a new LibrariesStore
func NewLibrariesStore(db *gorm.DB) *LibrariesStore {
	return &LibrariesStore{db: db}
}

// ListLibraries returns the libraries owned by ownerID
func (s *LibrariesStore) ListLibraries(ownerID uint) ([]model.Library, error) {
	libraries := []model.Library{}
	if err := s.db.Where("user_id = ?", ownerID).Order("id").Find(&libraries).Error; err != nil {
		return nil, err
	}
	return libraries, nil
}

// ListAllLibraries returns every library
func (s *LibrariesStore) ListAllLibraries() ([]model.Library, error) {
	libraries := []model.Library{}
	if err := s.db.Order("id").Find(&libraries).Error; err != nil {
		return nil, err
	}
	return libraries, nil
}

// FetchLibrary returns the library with the given id
func (s *LibrariesStore) FetchLibrary(id uint) (*model.Library, error) {
	var library model.Library
	tx := s.db.First(&library, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrLibraryNotFound
		}
		return nil, tx.Error
	}
	return &library, nil
}

// CreateLibrary inserts library
func (s *LibrariesStore) CreateLibrary(library *model.Library) error {
	return s.db.Create(library).Error
}

// UpdateLibrary renames the library
func (s *LibrariesStore) UpdateLibrary(library *model.Library) error {
	tx := s.db.Model(&model.Library{}).Where("id = ?", library.ID).Update("name", library.Name)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrLibraryNotFound
	}
	return nil
}

// DeleteLibrary removes an empty library.
// The library row stays locked from the book count through the delete, and
// books_library_id_fkey rejects deleting a row that is still referenced.
func (s *LibrariesStore) DeleteLibrary(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var library model.Library
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&library, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrLibraryNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Book{}).Where("library_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return store.ErrLibraryNotEmpty
		}

		if err := tx.Delete(&model.Library{}, id).Error; err != nil {
			if isViolation(err, pgerrcode.ForeignKeyViolation, constraintBooksLibraryFKey) {
				return store.ErrLibraryNotEmpty
			}
			return err
		}
		return nil
	})
}
