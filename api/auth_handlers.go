package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/venuehall/venuesite/auth"
)

// Login handles POST /admin/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	clientIP := a.extractClientIP(r)

	// Global lockout first, then the per-IP backoff.
	if blocked, retryAfter := a.globalLimiter.check(); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "global rate limited")
		writeRateLimited(w, retryAfter)
		return
	}
	if blocked, retryAfter := a.ipLimiter.check(clientIP); blocked {
		a.audit.logFailure(AuditLoginRateLimited, r, "ip rate limited",
			slog.String("client_ip", clientIP))
		writeRateLimited(w, retryAfter)
		return
	}

	req, err := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, token, err := a.issuer.Issue(req.Password)
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		a.audit.logFailure(AuditLoginFailure, r, "admin password not configured")
		writeMessage(w, http.StatusBadRequest, "admin login is not configured")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		a.globalLimiter.recordFailure()
		a.ipLimiter.recordFailure(clientIP)
		a.prom.loginAttempts.WithLabelValues("failure").Inc()
		a.audit.logFailure(AuditLoginFailure, r, "invalid password",
			slog.String("client_ip", clientIP))
		writeMessage(w, http.StatusUnauthorized, "invalid password")
		return
	case err != nil:
		a.writeInternalError(w, r, "failed to issue session", err)
		return
	}

	a.ipLimiter.recordSuccess(clientIP)
	a.prom.loginAttempts.WithLabelValues("success").Inc()
	a.writeSessionCookie(w, r, token, session.ExpiresAt)
	a.audit.logEvent(AuditLoginSuccess, r, session.ID,
		slog.String("expires_at", session.ExpiresAt.UTC().Format(time.RFC3339)))
	writeJSON(w, http.StatusOK, LoginResponse{OK: true})
}

// Logout handles POST /admin/logout. Sessions are stateless, so logging
// out only clears the cookies.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	a.clearSessionCookie(w, r)
	a.clearCSRFCookie(w, r)
	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// SessionCheck handles GET /admin/session-check.
func (a *API) SessionCheck(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, SessionCheckResponse{Valid: true, ExpiresAt: session.ExpiresAt})
}

// CSRFToken handles GET /admin/csrf-token. Each call replaces the
// browser's current token.
func (a *API) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := auth.NewCSRFToken()
	if err != nil {
		a.writeInternalError(w, r, "failed to generate csrf token", err)
		return
	}
	a.writeCSRFCookie(w, r, token)
	session, _ := auth.SessionFromContext(r.Context())
	a.audit.logEvent(AuditCSRFIssued, r, session.ID)
	writeJSON(w, http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}
