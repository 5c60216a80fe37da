package store

import (
	"errors"

	"github.com/wildbranch/wbl-catalog/pkg/model"
)

// ErrUserNotFound is returned when no user matches the lookup
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when creating a user whose email is taken
var ErrDuplicateEmail = errors.New("email already registered")

// UsersStore abstracts user account storage.
// Lookups always read the backing database; nothing is cached.
type UsersStore interface {
	// FindUserByEmail returns the user with the given email.
	// Returns ErrUserNotFound if there is none.
	FindUserByEmail(email string) (*model.User, error)

	// CreateUser inserts user and sets its ID.
	// Returns ErrDuplicateEmail if the email is already registered.
	CreateUser(user *model.User) error

	// UpdatePasswordHash replaces the stored hash for email.
	// Returns ErrUserNotFound if there is no such user.
	UpdatePasswordHash(email string, hash string) error
}
