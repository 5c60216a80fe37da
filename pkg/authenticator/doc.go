// Package authenticator verifies who a caller is.
//
// An Authenticator checks an email and password against the user store and
// returns the matching active user. A Resolver does the same for a bearer
// token: it decodes the token and re-reads the subject from the store, so a
// deactivated or deleted account loses access immediately.
//
// Both report failures with a single sentinel (ErrInvalidCredentials or
// ErrInvalidToken) and never reveal which check failed. Storage errors are
// passed through unchanged so callers can answer with a server error instead.
package authenticator
