package identity

import (
	"context"
	"net"
	"time"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated caller for a request.
// It combines the resolved user with the claims of the token that named them.
type Identity struct {
	User *model.User

	// Token claims
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP net.IP
}

// FromUser creates an Identity for a resolved user. Claims may be nil.
func FromUser(user *model.User, claims *token.Claims) *Identity {
	id := &Identity{User: user}
	if claims == nil {
		return id
	}
	id.Subject = claims.Subject
	id.TokenID = claims.ID
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
