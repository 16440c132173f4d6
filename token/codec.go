// Package token mints and verifies the signed, self-contained bearer tokens
// used by the session subsystem. Tokens are HS256 JWTs carrying a subject id,
// a token class (access or refresh), issue time, and expiry. Validity is
// recomputed from the signature and expiry on every use; nothing is stored.
//
// Expiry comparison uses the codec's own clock with zero skew tolerance: a
// token is rejected from its expiry instant on.
package token

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Verification failures. Any of these means no subject id is returned: a
// token is never partially trusted.
var (
	// ErrMalformed means the token could not be parsed or its signature did
	// not verify.
	ErrMalformed = errors.New("token: malformed or bad signature")

	// ErrExpired means the token's embedded expiry has passed.
	ErrExpired = errors.New("token: expired")

	// ErrWrongClass means the token is valid but of the other class.
	ErrWrongClass = errors.New("token: wrong class")
)

// Codec mints and verifies signed tokens with a single process-wide secret.
type Codec struct {
	cfg Config
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the codec's clock source. Used by tests to pin time at the
// expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a codec. It fails when the config is invalid, in
// particular when the signing secret is absent — callers are expected to
// treat that as a fatal startup error.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mint produces a signed token embedding subject id, class, issue time and
// expiry. A negative ttl yields an already-expired token; tests use this to
// exercise the expiry path directly.
func (c *Codec) Mint(subjectID string, class Class, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", errors.New("token: subject id is required")
	}
	if !class.Valid() {
		return "", fmt.Errorf("token: unknown class %q", class)
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		Class: class,
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).
		SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// MintAccess mints an access token with the configured access TTL.
func (c *Codec) MintAccess(subjectID string) (string, error) {
	return c.Mint(subjectID, ClassAccess, c.cfg.AccessTokenTTL)
}

// MintRefresh mints a refresh token with the configured refresh TTL.
func (c *Codec) MintRefresh(subjectID string) (string, error) {
	return c.Mint(subjectID, ClassRefresh, c.cfg.RefreshTokenTTL)
}

// Verify checks signature, expiry, and class, and returns the embedded
// subject id. Failures map to exactly one of ErrMalformed, ErrExpired, or
// ErrWrongClass.
func (c *Codec) Verify(tokenString string, expected Class) (string, error) {
	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(c.now),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}
	if claims.Class != expected {
		return "", ErrWrongClass
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// AccessTTL returns the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTokenTTL }

// RefreshTTL returns the configured refresh-token lifetime. It is also the
// upper bound on how long a revocation entry ever needs to be remembered.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTokenTTL }

func (c *Codec) keyFunc(t *gojwt.Token) (interface{}, error) {
	if t.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("token: unexpected signing method: %s", t.Method.Alg())
	}
	return []byte(c.cfg.Secret), nil
}
