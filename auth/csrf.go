package auth

import (
	"crypto/subtle"

	"github.com/venuehall/venuesite/internal/util"
)

// csrfTokenBytes is the number of random bytes in a CSRF token (256 bits).
const csrfTokenBytes = 32

// NewCSRFToken returns a fresh hex-encoded CSRF token.
func NewCSRFToken() (string, error) {
	return util.RandomHex(csrfTokenBytes)
}

// VerifyCSRFToken implements the double-submit check: the token echoed in
// the request header must equal the one in the cookie. Both must be present.
func VerifyCSRFToken(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(headerValue)) == 1
}
