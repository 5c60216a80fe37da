package authenticator

import (
	"errors"
	"fmt"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

// ErrInvalidToken is returned when a bearer token does not resolve to an
// active user. The codec error, if any, is wrapped.
var ErrInvalidToken = errors.New("could not validate credentials")

// TokenDecoder decodes a bearer token into its claims
type TokenDecoder interface {
	Decode(tokenString string) (*token.Claims, error)
}

// Resolver turns a bearer token into the user it was issued to
type Resolver struct {
	decoder TokenDecoder
	users   store.UsersStore
}

// NewResolver creates a Resolver
func NewResolver(decoder TokenDecoder, users store.UsersStore) *Resolver {
	return &Resolver{decoder: decoder, users: users}
}

// Resolve decodes tokenString and re-reads its subject from the store.
// A user that was deleted or deactivated after the token was issued is
// rejected even though the token itself is still valid.
func (r *Resolver) Resolve(tokenString string) (*model.User, error) {
	user, _, err := r.ResolveSession(tokenString)
	return user, err
}

// ResolveSession is Resolve that also returns the decoded claims
func (r *Resolver) ResolveSession(tokenString string) (*model.User, *token.Claims, error) {
	claims, err := r.decoder.Decode(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := r.users.FindUserByEmail(claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is inactive", ErrInvalidToken)
	}

	return user, claims, nil
}
