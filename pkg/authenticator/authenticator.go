package authenticator

import (
	"errors"
	"fmt"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

// ErrInvalidCredentials is returned for any failed sign-in. Callers cannot
// tell an unknown email from a wrong password or an inactive account.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// dummyPassword is hashed in New and verified against when the email is
// unknown, so that path costs one bcrypt comparison like the others.
const dummyPassword = "wbl-catalog-timing-equalizer"

// Authenticator verifies email/password credentials against the user store
type Authenticator struct {
	users     store.UsersStore
	hasher    *password.Hasher
	dummyHash string
}

// New creates an Authenticator. It spends one bcrypt hash at the
// configured cost up front.
func New(users store.UsersStore, hasher *password.Hasher) *Authenticator {
	dummyHash, _ := hasher.Hash(dummyPassword)
	return &Authenticator{users: users, hasher: hasher, dummyHash: dummyHash}
}

// Authenticate returns the active user whose email and password match.
//
// Unknown email, wrong password and inactive account all yield
// ErrInvalidCredentials. A stored hash that cannot be parsed yields an error
// matching both ErrInvalidCredentials and password.ErrCorruptCredentialRecord.
// Storage failures are returned unchanged.
func (a *Authenticator) Authenticate(email, plaintext string) (*model.User, error) {
	user, err := a.users.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			a.equalizeTiming(plaintext)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := a.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (a *Authenticator) equalizeTiming(plaintext string) {
	_, _ = a.hasher.Verify(plaintext, a.dummyHash)
}
