package auth

import (
	"time"

	"github.com/venuehall/venuesite/internal/uuid"
)

// AdminSubject is the subject of every session minted by password login.
const AdminSubject = "admin"

// Session is the authenticated state carried in the session cookie.
type Session struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Valid reports whether the session is unexpired at now.
func (s Session) Valid(now time.Time) bool {
	return s.Subject != "" && now.Before(s.ExpiresAt)
}

// Issuer mints sessions for correct passwords and verifies them later.
// It holds no per-session state.
type Issuer struct {
	creds  *Credentials
	signer Signer
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithClock overrides the issuer clock.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer returns an Issuer. signer may be nil when no signing key could
// be derived; such an issuer refuses every login and every token.
func NewIssuer(creds *Credentials, signer Signer, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		creds:  creds,
		signer: signer,
		ttl:    12 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the configured session lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue checks password and returns a new session and its signed token.
func (i *Issuer) Issue(password string) (Session, string, error) {
	if err := i.creds.Verify(password); err != nil {
		return Session{}, "", err
	}
	if i.signer == nil {
		return Session{}, "", ErrNotConfigured
	}
	now := i.now().Truncate(time.Second)
	sess := Session{
		Subject:   AdminSubject,
		ID:        uuid.New(),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	token, err := i.signer.Sign(sess)
	if err != nil {
		return Session{}, "", err
	}
	return sess, token, nil
}

// Verify returns the session carried by token. Every failure (missing,
// malformed, forged, expired) collapses to false.
func (i *Issuer) Verify(token string) (Session, bool) {
	if token == "" || i.signer == nil {
		return Session{}, false
	}
	sess, err := i.signer.Parse(token)
	if err != nil || !sess.Valid(i.now()) {
		return Session{}, false
	}
	return sess, true
}
