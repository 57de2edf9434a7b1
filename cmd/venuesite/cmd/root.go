package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/venuehall/venuesite/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// cfg starts from VENUE_* environment defaults; flags override it.
var cfg = config.FromEnv(os.Getenv)

var rootCmd = &cobra.Command{
	Use:   "venuesite",
	Short: "venuesite serves the convention center event API",
	Long: `Admin login, CSRF-protected event management and image uploads for the
convention center website.

Secrets are read from the environment only:
  VENUE_ADMIN_PASSWORD, VENUE_ADMIN_PASSWORD_HASH, VENUE_SESSION_SIGNING_KEY,
  VENUE_S3_ACCESS_KEY_ID, VENUE_S3_SECRET_ACCESS_KEY`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for persistent data")
	pf.StringVar(&cfg.Store, "store", cfg.Store, "Event store backend (bbolt, memory, postgres)")
	pf.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Postgres connection string for the postgres store")
}
