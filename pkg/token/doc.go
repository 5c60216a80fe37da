// Package token issues and decodes the bearer tokens handed out at login.
//
// Tokens are HMAC-signed JWTs carrying the user's email as subject along
// with issued-at, expiry and a random token id. The signing secret is
// supplied once through Config and never changes for the life of a Codec.
//
// # Basic Usage
//
//	codec, err := token.NewCodec(token.Config{Secret: secret})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := codec.Issue("alice@example.com", token.DefaultValidity)
//
//	claims, err := codec.Decode(tok)
//	switch {
//	case errors.Is(err, token.ErrExpired):
//	case errors.Is(err, token.ErrBadSignature):
//	case errors.Is(err, token.ErrMalformed):
//	}
package token
