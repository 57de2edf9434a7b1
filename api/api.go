package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/venuehall/venuesite/auth"
	"github.com/venuehall/venuesite/storage"
	"github.com/venuehall/venuesite/uploads"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	issuer  *auth.Issuer
	events  storage.EventStore
	uploads uploads.Store

	logger   *slog.Logger
	audit    *auditLogger
	validate *validator.Validate

	production     bool
	trustedProxies []netip.Prefix

	ipLimiter      *ipRateLimiter
	globalLimiter  *globalRateLimiter
	requestLimiter *requestLimiter

	alertFn  AlertFunc
	registry *prometheus.Registry
	prom     *promMetrics

	webhookURL  string
	webhookAuth string
}

//go:embed openapi.yaml
var openapiDocument []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events and internal
// errors. If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithProduction forces the Secure attribute on every cookie the API sets.
func WithProduction(production bool) Option {
	return func(a *API) {
		a.production = production
	}
}

// WithTrustedProxies returns an Option that configures which proxy CIDR
// ranges are trusted to set X-Forwarded-For and related headers. Bare
// addresses are accepted as single-host ranges.
func WithTrustedProxies(cidrs []string) (Option, error) {
	prefixes, err := parseTrustedProxies(cidrs)
	if err != nil {
		return nil, err
	}
	return func(a *API) {
		a.trustedProxies = prefixes
	}, nil
}

// WithAlertFunc registers a callback for anomaly alerts such as login
// failure spikes.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// WithRateLimit enables a per-client token bucket on admin and mutation
// routes. A non-positive perSecond disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(a *API) {
		a.requestLimiter = newRequestLimiter(perSecond, burst)
	}
}

// WithMetricsRegistry registers the API's Prometheus collectors on reg
// instead of a private registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(a *API) {
		a.registry = reg
	}
}

// New creates a new API instance. store may be nil when only the admin
// session routes are used.
func New(issuer *auth.Issuer, events storage.EventStore, store uploads.Store, opts ...Option) *API {
	a := &API{
		issuer:        issuer,
		events:        events,
		uploads:       store,
		validate:      newValidator(),
		ipLimiter:     newIPRateLimiter(),
		globalLimiter: newGlobalRateLimiter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.prom = newPromMetrics(a.registry)
	a.audit = newAuditLogger(a.logger)
	a.audit.metrics = newMetricsCollector(a.alertFn)
	a.audit.prom = a.prom
	if a.webhookURL != "" {
		a.audit.webhook = newAuditWebhook(a.webhookURL, a.webhookAuth, a.logger)
	}
	return a
}

// Close flushes queued audit webhook deliveries.
func (a *API) Close() {
	if a.audit != nil && a.audit.webhook != nil {
		a.audit.webhook.close()
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(a.prom.instrument)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiDocument)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Route("/admin", func(r chi.Router) {
		r.Use(a.rateLimit)
		r.Post("/login", a.Login)
		r.Post("/logout", a.Logout)
		r.With(a.requireSession).Get("/session-check", a.SessionCheck)
		r.With(a.requireSession).Get("/csrf-token", a.CSRFToken)
	})

	r.Get("/events", a.ListEvents)
	r.Get("/events/{id}", a.GetEvent)
	r.Get("/uploads/*", a.ServeUpload)

	// Every mutation passes session, then CSRF, then shape validation.
	r.Group(func(r chi.Router) {
		r.Use(a.rateLimit)
		r.Use(a.requireSession)
		r.Use(a.requireCSRF)
		r.Post("/events", a.CreateEvent)
		r.Put("/events", a.ReplaceEvents)
		r.Post("/uploads", a.UploadFile)
		r.Delete("/uploads/*", a.DeleteUpload)
	})

	return r
}
