// Package auth implements the admin credential check, stateless signed
// sessions, and double-submit CSRF tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/bcrypt"

	"github.com/venuehall/venuesite/internal/util"
)

// signingKeyInfo is the HKDF label for session signing keys. Changing it
// invalidates every outstanding session.
const signingKeyInfo = "venuesite:session-signing-key:v1"

// Credentials holds the shared admin secret. The plaintext form lives in a
// memguard enclave and is only decrypted for the duration of a comparison.
type Credentials struct {
	password *memguard.Enclave
	hash     []byte
}

// NewCredentials builds the credential store from a plaintext password, a
// bcrypt hash, or both. Empty inputs are allowed and leave the store
// unconfigured; a malformed hash is an error.
func NewCredentials(password, passwordHash string) (*Credentials, error) {
	c := &Credentials{}
	if password != "" {
		c.password = memguard.NewEnclave([]byte(util.Normalize(password)))
	}
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("parsing admin password hash: %w", err)
		}
		c.hash = []byte(passwordHash)
	}
	return c, nil
}

// Configured reports whether any admin secret is available.
func (c *Credentials) Configured() bool {
	return c != nil && (c.password != nil || len(c.hash) > 0)
}

// Verify checks password against the configured secret in constant time.
func (c *Credentials) Verify(password string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if password == "" {
		return ErrInvalidCredentials
	}
	candidate := []byte(util.Normalize(password))
	defer memguard.WipeBytes(candidate)

	if c.password != nil {
		buf, err := c.password.Open()
		if err != nil {
			return fmt.Errorf("opening admin secret: %w", err)
		}
		match := subtle.ConstantTimeCompare(buf.Bytes(), candidate) == 1
		buf.Destroy()
		if match {
			return nil
		}
	}
	if len(c.hash) > 0 {
		err := bcrypt.CompareHashAndPassword(c.hash, candidate)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("comparing admin password hash: %w", err)
		}
	}
	return ErrInvalidCredentials
}

// SigningKey derives the session signing key. A dedicated signingKey is
// preferred; otherwise the admin secret itself is used as HKDF input.
// ErrNotConfigured is returned when neither is available.
func SigningKey(signingKey string, creds *Credentials) ([]byte, error) {
	if signingKey != "" {
		return util.DeriveKey([]byte(signingKey), signingKeyInfo)
	}
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}
	if creds.password != nil {
		buf, err := creds.password.Open()
		if err != nil {
			return nil, fmt.Errorf("opening admin secret: %w", err)
		}
		defer buf.Destroy()
		return util.DeriveKey(buf.Bytes(), signingKeyInfo)
	}
	return util.DeriveKey(creds.hash, signingKeyInfo)
}

// HashPassword returns a bcrypt hash suitable for VENUE_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(util.Normalize(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}
