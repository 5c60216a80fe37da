package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultValidity is the lifetime of an access token when none is configured
const DefaultValidity = 30 * 24 * time.Hour

// DefaultAlgorithm is the HMAC algorithm used when none is configured
const DefaultAlgorithm = "HS256"

var (
	// ErrBadSignature is returned when the signature does not verify under the configured secret
	ErrBadSignature = errors.New("token signature is invalid")
	// ErrExpired is returned when the token's expiry is not in the future
	ErrExpired = errors.New("token has expired")
	// ErrMalformed is returned when the token cannot be parsed or lacks required claims
	ErrMalformed = errors.New("token is malformed")

	ErrEmptySecret       = errors.New("signing secret must not be empty")
	ErrInvalidValidity   = errors.New("token validity must be positive")
	ErrUnsupportedMethod = errors.New("unsupported signing algorithm")
)

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// SupportedAlgorithms lists the accepted values for Config.Algorithm
func SupportedAlgorithms() []string {
	return []string{"HS256", "HS384", "HS512"}
}

// Claims is the payload of an access token
type Claims struct {
	jwt.RegisteredClaims
}

// Config configures a Codec. It is read once at construction.
type Config struct {
	Secret    []byte
	Algorithm string
	// Now overrides the clock, mostly for tests
	Now func() time.Time
}

// Codec issues and decodes signed access tokens
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewCodec validates cfg and returns a Codec bound to it
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, alg)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{secret: secret, method: method, now: now}, nil
}

// Algorithm returns the signing algorithm name
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs a token for subject that expires validity after issuance
func (c *Codec) Issue(subject string, validity time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrMalformed)
	}
	if validity <= 0 {
		return "", ErrInvalidValidity
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of tokenString and returns its claims.
// Errors match ErrBadSignature, ErrExpired or ErrMalformed.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	// jwt accepts exp == now; an expiry at the current instant is already past
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims, nil
}
