package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess       AuditEvent = "login_success"
	AuditLoginFailure       AuditEvent = "login_failure"
	AuditLoginRateLimited   AuditEvent = "login_rate_limited"
	AuditLogout             AuditEvent = "logout"
	AuditCSRFIssued         AuditEvent = "csrf_issued"
	AuditCSRFRejected       AuditEvent = "csrf_rejected"
	AuditEventCreated       AuditEvent = "event_created"
	AuditEventsReplaced     AuditEvent = "events_replaced"
	AuditUploadSaved        AuditEvent = "upload_saved"
	AuditUploadRejected     AuditEvent = "upload_rejected"
	AuditUploadDeleted      AuditEvent = "upload_deleted"
	AuditUploadDeleteFailed AuditEvent = "upload_delete_failed"
	AuditRequestRateLimited AuditEvent = "request_rate_limited"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
	prom    *promMetrics
	webhook *auditWebhook
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry and feeds the anomaly counters.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)

	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	al.metrics.recordEvent(event)
	if al.prom != nil {
		al.prom.auditEvents.WithLabelValues(string(event)).Inc()
	}
	if al.webhook != nil {
		al.webhook.enqueue(toWebhookEvent(baseAttrs))
	}
}

// logEvent is a convenience for events tied to a session. sessionID is the
// token's jti, never the token itself.
func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, sessionID string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("session_id", sessionID),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

// logFailure logs a rejected request with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
