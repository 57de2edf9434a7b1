package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/venuehall/venuesite/auth"
	"github.com/venuehall/venuesite/internal/config"
	"github.com/venuehall/venuesite/storage"
	bboltstorage "github.com/venuehall/venuesite/storage/bbolt"
	"github.com/venuehall/venuesite/storage/memory"
	"github.com/venuehall/venuesite/storage/postgres"
	"github.com/venuehall/venuesite/uploads"
)

// uploadsURLPrefix is where the API router serves directory uploads.
const uploadsURLPrefix = "/uploads"

// openEventStore returns the configured event store and a function that
// releases it.
func openEventStore(ctx context.Context, c config.Config) (storage.EventStore, func() error, error) {
	switch c.Store {
	case config.StoreMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, c.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreBBolt:
		if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		// A second process holding the file lock fails fast instead of hanging.
		s, err := bboltstorage.NewStoreFromFile(filepath.Join(c.DataDir, "events.db"), &bbolt.Options{Timeout: 2 * time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event storage: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", c.Store)
	}
}

// openUploads returns the configured upload store.
func openUploads(c config.Config) (uploads.Store, error) {
	switch c.UploadsBackend {
	case config.UploadsS3:
		s, err := uploads.NewS3(uploads.S3Options{
			Bucket:          c.S3.Bucket,
			Prefix:          c.S3.Prefix,
			Endpoint:        c.S3.Endpoint,
			Region:          c.S3.Region,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			PublicURL:       c.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.UploadsDir:
		d, err := uploads.NewDir(c.UploadsDir, uploadsURLPrefix)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", c.UploadsBackend)
	}
}

// newIssuer builds the session issuer. A missing admin secret is logged
// and yields an issuer that rejects every login with a configuration error.
func newIssuer(c config.Config, logger *slog.Logger) (*auth.Issuer, error) {
	creds, err := auth.NewCredentials(c.AdminPassword, c.AdminPasswordHash)
	if err != nil {
		return nil, err
	}
	if !creds.Configured() {
		logger.Warn("admin password is not configured; login is disabled",
			"env", []string{config.EnvAdminPassword, config.EnvAdminPasswordHash})
	}
	key, err := auth.SigningKey(c.SessionSigningKey, creds)
	if errors.Is(err, auth.ErrNotConfigured) {
		return auth.NewIssuer(creds, nil, auth.WithTTL(c.SessionTTL)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("deriving session signing key: %w", err)
	}
	signer, err := auth.NewJWTSigner(key)
	if err != nil {
		return nil, err
	}
	return auth.NewIssuer(creds, signer, auth.WithTTL(c.SessionTTL)), nil
}

func newLogger(production bool) *slog.Logger {
	if production {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
