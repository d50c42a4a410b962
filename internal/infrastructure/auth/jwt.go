// Package auth verifies the bearer tokens accepted by the customer API.
package auth

import (
	"errors"
	"time"

	"github.com/customers/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
	ErrMissingSecret    = errors.New("jwt secret is required when authentication is enabled")
)

// Claims carried by API tokens
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// IssuedAt returns the iat claim, or the zero time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// TokenVerifier checks HS256 tokens signed with a shared secret
type TokenVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenVerifier builds a verifier from cfg. An empty issuer accepts
// tokens from any issuer.
func NewTokenVerifier(cfg config.JWTConfig) (*TokenVerifier, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer, leeway: 30 * time.Second}, nil
}

// Verify parses token and returns its claims
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil || !parsed.Valid:
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Sign issues a token for subject valid for ttl. It is used by tests and
// operators minting service tokens.
func (v *TokenVerifier) Sign(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
