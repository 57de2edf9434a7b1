// Package config holds the process configuration for the venuesite server.
//
// A Config is assembled once at startup (environment variables provide the
// defaults, command-line flags override them) and is then passed explicitly
// to the components that need it. Nothing below the command layer reads the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvAdminPassword     = "VENUE_ADMIN_PASSWORD"
	EnvAdminPasswordHash = "VENUE_ADMIN_PASSWORD_HASH"
	EnvSessionSigningKey = "VENUE_SESSION_SIGNING_KEY"
	EnvSessionTTL        = "VENUE_SESSION_TTL"
	EnvEnvironment       = "VENUE_ENV"
	EnvPort              = "VENUE_PORT"
	EnvDataDir           = "VENUE_DATA_DIR"
	EnvStore             = "VENUE_STORE"
	EnvPostgresDSN       = "VENUE_POSTGRES_DSN"
	EnvUploadsDir        = "VENUE_UPLOADS_DIR"
	EnvUploadsBackend    = "VENUE_UPLOADS_BACKEND"
	EnvS3Bucket          = "VENUE_S3_BUCKET"
	EnvS3Prefix          = "VENUE_S3_PREFIX"
	EnvS3Endpoint        = "VENUE_S3_ENDPOINT"
	EnvS3Region          = "VENUE_S3_REGION"
	EnvS3AccessKeyID     = "VENUE_S3_ACCESS_KEY_ID"
	EnvS3SecretKey       = "VENUE_S3_SECRET_ACCESS_KEY"
	EnvS3PublicURL       = "VENUE_S3_PUBLIC_URL"
	EnvTrustedProxies    = "VENUE_TRUSTED_PROXIES"
	EnvAuditWebhookURL   = "VENUE_AUDIT_WEBHOOK_URL"
	EnvAuditWebhookAuth  = "VENUE_AUDIT_WEBHOOK_HEADER"
)

// Store backends.
const (
	StoreBBolt    = "bbolt"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Upload backends.
const (
	UploadsDir = "dir"
	UploadsS3  = "s3"
)

// DefaultSessionTTL is the lifetime of an admin session cookie.
const DefaultSessionTTL = 12 * time.Hour

// S3Config describes an S3-compatible bucket used for uploads.
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// IsConfigured reports whether the bucket and credentials are set.
func (c S3Config) IsConfigured() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Config is the complete server configuration.
type Config struct {
	Port    int
	DataDir string

	Store       string
	PostgresDSN string

	UploadsDir     string
	UploadsBackend string
	S3             S3Config

	// AdminPassword and AdminPasswordHash are the shared admin secret.
	// Either may be empty; when both are empty login reports a
	// configuration error instead of the server refusing to start.
	AdminPassword     string
	AdminPasswordHash string
	SessionSigningKey string
	SessionTTL        time.Duration

	TrustedProxies []string
	Production     bool

	TLSCert string
	TLSKey  string

	// RateLimit is the sustained requests per second allowed per client
	// on admin routes; RateBurst is the bucket size. Zero disables it.
	RateLimit float64
	RateBurst int

	// AuditWebhookURL, when set, receives every audit event as JSON.
	// AuditWebhookHeader is an optional "Name: value" header sent with it.
	AuditWebhookURL    string
	AuditWebhookHeader string
}

// FromEnv builds a Config from defaults overlaid with environment values
// obtained through getenv (normally os.Getenv).
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Port:           8080,
		DataDir:        "./data",
		Store:          StoreBBolt,
		UploadsDir:     "./data/uploads",
		UploadsBackend: UploadsDir,
		SessionTTL:     DefaultSessionTTL,
		RateLimit:      5,
		RateBurst:      20,
		S3:             S3Config{Region: "auto"},
	}

	if v := getenv(EnvPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	setString(&cfg.DataDir, getenv(EnvDataDir))
	setString(&cfg.Store, getenv(EnvStore))
	setString(&cfg.PostgresDSN, getenv(EnvPostgresDSN))
	setString(&cfg.UploadsDir, getenv(EnvUploadsDir))
	setString(&cfg.UploadsBackend, getenv(EnvUploadsBackend))
	setString(&cfg.S3.Bucket, getenv(EnvS3Bucket))
	setString(&cfg.S3.Prefix, getenv(EnvS3Prefix))
	setString(&cfg.S3.Endpoint, getenv(EnvS3Endpoint))
	setString(&cfg.S3.Region, getenv(EnvS3Region))
	setString(&cfg.S3.AccessKeyID, getenv(EnvS3AccessKeyID))
	setString(&cfg.S3.SecretAccessKey, getenv(EnvS3SecretKey))
	setString(&cfg.S3.PublicURL, getenv(EnvS3PublicURL))
	setString(&cfg.AuditWebhookURL, getenv(EnvAuditWebhookURL))
	setString(&cfg.AuditWebhookHeader, getenv(EnvAuditWebhookAuth))
	cfg.AdminPassword = getenv(EnvAdminPassword)
	cfg.AdminPasswordHash = getenv(EnvAdminPasswordHash)
	cfg.SessionSigningKey = getenv(EnvSessionSigningKey)
	if v := getenv(EnvSessionTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = d
		}
	}
	if v := getenv(EnvTrustedProxies); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
	cfg.Production = strings.EqualFold(getenv(EnvEnvironment), "production")
	return cfg
}

// Validate checks the structural configuration. A missing admin secret is
// not an error; login reports it instead.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Store {
	case StoreBBolt:
		if c.DataDir == "" {
			errs = append(errs, errors.New("data dir is required for the bbolt store"))
		}
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.UploadsBackend {
	case UploadsDir:
		if c.UploadsDir == "" {
			errs = append(errs, errors.New("uploads dir is required"))
		}
	case UploadsS3:
		if !c.S3.IsConfigured() {
			errs = append(errs, errors.New("s3 bucket and credentials are required for the s3 uploads backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown uploads backend %q", c.UploadsBackend))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies as CIDR ranges. Bare
// addresses are treated as single-host prefixes.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
