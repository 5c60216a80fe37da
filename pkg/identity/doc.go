// Package identity carries the authenticated caller through a request.
//
// The bearer middleware resolves a token to a user and stores an Identity in
// the request context. Handlers read it back with Get:
//
//	id, ok := identity.Get(r.Context())
//	if !ok {
//	    // unauthenticated route
//	}
//	user := id.User
//
// An Identity holds the user row as it was read for this request along with
// the claims of the token that named it and the client address.
package identity
