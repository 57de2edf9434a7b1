package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIssuer is the "iss" claim placed in session tokens.
const DefaultIssuer = "venuesite-admin"

// minSigningKeyLen is the smallest HMAC key accepted for HS256.
const minSigningKeyLen = 32

// Signer turns sessions into opaque tokens and back. Parse must reject
// tampered, foreign, and expired tokens with ErrInvalidToken.
type Signer interface {
	Sign(s Session) (string, error)
	Parse(token string) (Session, error)
}

// JWTSigner signs sessions as HS256 JSON Web Tokens.
type JWTSigner struct {
	key    []byte
	issuer string
	now    func() time.Time
}

var _ Signer = (*JWTSigner)(nil)

// SignerOption configures a JWTSigner.
type SignerOption func(*JWTSigner)

// WithSignerClock overrides the clock used to validate expiry.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *JWTSigner) { s.now = now }
}

// WithTokenIssuer overrides the "iss" claim.
func WithTokenIssuer(issuer string) SignerOption {
	return func(s *JWTSigner) { s.issuer = issuer }
}

// NewJWTSigner returns a signer using key for HMAC-SHA256.
func NewJWTSigner(key []byte, opts ...SignerOption) (*JWTSigner, error) {
	if len(key) < minSigningKeyLen {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", minSigningKeyLen, len(key))
	}
	s := &JWTSigner{
		key:    append([]byte(nil), key...),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign encodes s as a signed token.
func (s *JWTSigner) Sign(sess Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   sess.Subject,
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the session it carries.
func (s *JWTSigner) Parse(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return Session{}, ErrInvalidToken
	}
	return Session{
		Subject:   claims.Subject,
		ID:        claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
