package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/venuehall/venuesite/api"
)

// maintenanceInterval is how often expired login-failure records are swept.
const maintenanceInterval = 5 * time.Minute

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the event API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger := newLogger(cfg.Production)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, closeEvents, err := openEventStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeEvents()

		store, err := openUploads(cfg)
		if err != nil {
			return fmt.Errorf("failed to open upload storage: %w", err)
		}

		issuer, err := newIssuer(cfg, logger)
		if err != nil {
			return err
		}

		proxies, err := api.WithTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		opts := []api.Option{
			api.WithLogger(logger),
			api.WithProduction(cfg.Production),
			proxies,
			api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			api.WithMetricsRegistry(registry),
			api.WithAlertFunc(func(ev api.AlertEvent) {
				logger.Warn("security alert",
					"type", ev.Type,
					"message", ev.Message,
					"count", ev.Count,
					"threshold", ev.Threshold)
			}),
		}
		if cfg.AuditWebhookURL != "" {
			opts = append(opts, api.WithAuditWebhook(cfg.AuditWebhookURL, cfg.AuditWebhookHeader))
		}
		a := api.New(issuer, events, store, opts...)
		defer a.Close()

		go a.RunMaintenance(ctx, maintenanceInterval)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Handle("/metrics", a.MetricsHandler())
		r.Mount("/", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			var err error
			if cfg.TLSCert != "" {
				err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(os.Stdout)
		logger.Info("starting server",
			"port", cfg.Port,
			"store", cfg.Store,
			"uploads", cfg.UploadsBackend,
			"tls", cfg.TLSCert != "",
			"production", cfg.Production)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	f := serverCmd.Flags()
	f.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port to listen on")
	f.StringVar(&cfg.UploadsDir, "uploads-dir", cfg.UploadsDir, "Directory for uploaded images (dir backend)")
	f.StringVar(&cfg.UploadsBackend, "uploads-backend", cfg.UploadsBackend, "Upload backend (dir, s3)")
	f.StringVar(&cfg.S3.Bucket, "s3-bucket", cfg.S3.Bucket, "S3 bucket for uploads")
	f.StringVar(&cfg.S3.Prefix, "s3-prefix", cfg.S3.Prefix, "Key prefix inside the S3 bucket")
	f.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "Custom S3-compatible endpoint URL")
	f.StringVar(&cfg.S3.Region, "s3-region", cfg.S3.Region, "S3 region")
	f.StringVar(&cfg.S3.PublicURL, "s3-public-url", cfg.S3.PublicURL, "Public base URL for uploaded objects")
	f.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Admin session lifetime")
	f.StringSliceVar(&cfg.TrustedProxies, "trusted-proxies", cfg.TrustedProxies, "Proxy IPs or CIDRs whose forwarding headers are trusted")
	f.BoolVar(&cfg.Production, "production", cfg.Production, "Production mode (always-secure cookies, JSON logs)")
	f.StringVar(&cfg.TLSCert, "tls-cert", "", "Path to TLS certificate file")
	f.StringVar(&cfg.TLSKey, "tls-key", "", "Path to TLS key file")
	f.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second per client on admin routes (0 disables)")
	f.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "Burst size for --rate-limit")
	f.StringVar(&cfg.AuditWebhookURL, "audit-webhook-url", cfg.AuditWebhookURL, "Endpoint that receives audit events as JSON")
	f.StringVar(&cfg.AuditWebhookHeader, "audit-webhook-header", cfg.AuditWebhookHeader, `Extra header for audit webhook requests ("Name: value")`)
}
