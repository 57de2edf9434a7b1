package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreBBolt, cfg.Store)
	assert.Equal(t, UploadsDir, cfg.UploadsBackend)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.False(t, cfg.Production)
	assert.Empty(t, cfg.AdminPassword)
	require.NoError(t, cfg.Validate(), "missing admin secret must not fail validation")
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		EnvPort:              "9000",
		EnvAdminPassword:     "hunter2",
		EnvSessionSigningKey: "k",
		EnvSessionTTL:        "1h",
		EnvEnvironment:       "Production",
		EnvTrustedProxies:    "10.0.0.0/8, 127.0.0.1",
		EnvStore:             StoreMemory,
		EnvS3PublicURL:       "https://cdn.example.com",
		EnvAuditWebhookURL:   "https://siem.example.com/hook",
		EnvAuditWebhookAuth:  "Authorization: Bearer t",
	}))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.Production)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, "https://cdn.example.com", cfg.S3.PublicURL)
	assert.Equal(t, "https://siem.example.com/hook", cfg.AuditWebhookURL)
	assert.Equal(t, "Authorization: Bearer t", cfg.AuditWebhookHeader)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, 32, prefixes[1].Bits())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }},
		{"s3 without bucket", func(c *Config) { c.UploadsBackend = UploadsS3 }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"cert without key", func(c *Config) { c.TLSCert = "cert.pem" }},
		{"bad proxy", func(c *Config) { c.TrustedProxies = []string{"not-an-ip"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv(envMap(nil))
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
