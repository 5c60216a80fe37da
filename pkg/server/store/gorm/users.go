package gorm

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"gorm.io/gorm"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

// FindUserByEmail returns the user with the given email
func (s *UsersStore) FindUserByEmail(email string) (*model.User, error) {
	var user model.User
	tx := s.db.Where("email = ?", email).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}
	return &user, nil
}

// CreateUser inserts user
func (s *UsersStore) CreateUser(user *model.User) error {
	err := s.db.Create(user).Error
	if isViolation(err, pgerrcode.UniqueViolation, constraintUsersEmailKey) {
		return store.ErrDuplicateEmail
	}
	return err
}

// UpdatePasswordHash replaces the stored hash for email
func (s *UsersStore) UpdatePasswordHash(email string, hash string) error {
	tx := s.db.Model(&model.User{}).Where("email = ?", email).Update("password", hash)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
