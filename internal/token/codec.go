package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken matches every verification failure.
	ErrInvalidToken = errors.New("token is invalid or expired")

	ErrTokenInvalid = fmt.Errorf("%w: rejected", ErrInvalidToken)
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)

	ErrUnknownPurpose = errors.New("unknown token purpose")
)

type claims[T any] struct {
	Data T `json:"data"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens carrying a typed payload under the
// "data" claim. A Codec is immutable after construction and safe for
// concurrent use.
type Codec struct {
	issuer  string
	secrets map[Purpose][]byte
	now     func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(issuer string, secrets map[Purpose][]byte, opts ...Option) (*Codec, error) {
	c := &Codec{
		issuer:  issuer,
		secrets: make(map[Purpose][]byte, len(secrets)),
		now:     time.Now,
	}

	seen := make(map[string]Purpose, len(secrets))
	for _, p := range Purposes() {
		secret := secrets[p]
		if len(secret) == 0 {
			return nil, fmt.Errorf("missing secret for %s tokens", p)
		}
		if other, dup := seen[string(secret)]; dup {
			return nil, fmt.Errorf("%s and %s tokens must not share a secret", other, p)
		}
		seen[string(secret)] = p

		c.secrets[p] = append([]byte(nil), secret...)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) secret(p Purpose) ([]byte, error) {
	secret, ok := c.secrets[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPurpose, int(p))
	}
	return secret, nil
}

// Issue signs payload for purpose p. The returned time is the expiry written
// into the token, truncated to the claim's second precision.
func Issue[T any](c *Codec, payload T, p Purpose, ttl time.Duration) (string, time.Time, error) {
	secret, err := c.secret(p)
	if err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("ttl for %s tokens must be positive, got %s", p, ttl)
	}

	now := c.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	tokenClaims := claims[T]{
		Data: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{p.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", p, err)
	}

	return signed, expiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry before
// returning the payload. Failures wrap ErrTokenExpired or ErrTokenInvalid.
func Verify[T any](c *Codec, tokenString string, p Purpose) (T, error) {
	var zero T

	secret, err := c.secret(p)
	if err != nil {
		return zero, err
	}

	tokenClaims := &claims[T]{}
	_, err = jwt.ParseWithClaims(tokenString, tokenClaims,
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(p.String()),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return zero, fmt.Errorf("%w: %s token", ErrTokenExpired, p)
		}
		return zero, fmt.Errorf("%w: %s token: %v", ErrTokenInvalid, p, err)
	}

	return tokenClaims.Data, nil
}

// Metadata is the registered part of a token read without verification.
type Metadata struct {
	ID        string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Expired   bool
}

// Inspect decodes a token without checking its signature. The result is for
// diagnostics only and must never authorize anything.
func (c *Codec) Inspect(tokenString string) (*Metadata, error) {
	registered := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, registered); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	meta := &Metadata{
		ID:       registered.ID,
		Issuer:   registered.Issuer,
		Audience: registered.Audience,
	}
	if registered.IssuedAt != nil {
		meta.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		meta.ExpiresAt = registered.ExpiresAt.Time
		meta.Expired = !c.now().Before(meta.ExpiresAt)
	}

	return meta, nil
}
