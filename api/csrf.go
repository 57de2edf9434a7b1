package api

import (
	"net/http"
	"time"

	"github.com/venuehall/venuesite/auth"
)

const (
	csrfCookieName = "venue_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfTokenTTL   = time.Hour
)

// requireCSRF enforces the double-submit check: the X-CSRF-Token header
// must equal the venue_csrf cookie. It runs after requireSession, so an
// unauthenticated request is a 401 before it is ever a 403.
func (a *API) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieValue string
		if cookie, err := r.Cookie(csrfCookieName); err == nil {
			cookieValue = cookie.Value
		}
		if !auth.VerifyCSRFToken(cookieValue, r.Header.Get(csrfHeaderName)) {
			reason := "token mismatch"
			if cookieValue == "" {
				reason = "missing cookie"
			} else if r.Header.Get(csrfHeaderName) == "" {
				reason = "missing header"
			}
			a.audit.logFailure(AuditCSRFRejected, r, reason)
			writeError(w, http.StatusForbidden, "invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeCSRFCookie sets the double-submit cookie. It is intentionally not
// HttpOnly so the admin UI can echo it in the request header.
func (a *API) writeCSRFCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   a.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(csrfTokenTTL / time.Second),
		Expires:  time.Now().Add(csrfTokenTTL),
	})
}

// clearCSRFCookie removes the CSRF cookie on logout.
func (a *API) clearCSRFCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: false,
		Secure:   a.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
