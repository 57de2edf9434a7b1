package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/venuehall/venuesite/storage"
)

// eventExport is the file format written by "events export" and read by
// "events import" and "events verify".
type eventExport struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Events     []storage.Event `json:"events"`
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Export, import and verify the event list",
	Long: `Offline maintenance for the event list. export and import open the
configured store directly, so stop the server first when using bbolt.`,
}

var (
	exportOut    string
	importForce  bool
	verifyAsJSON bool
)

var eventsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every event to a JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, closeStore, err := openEventStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		out := cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.OpenFile(exportOut, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			out = f
		}
		n, err := exportEvents(ctx, store, out, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d event(s)\n", n)
		return nil
	},
}

var eventsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the event list with the contents of an export file",
	Long: `Reads an export file, verifies it and replaces the whole event list.
Event ids and creation times are reassigned by the store. Files that fail
verification are refused unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := readExportFile(args[0])
		if err != nil {
			return err
		}
		if result := verifyEventExport(export); !result.Valid && !importForce {
			printVerifyResult(cmd.ErrOrStderr(), result)
			return fmt.Errorf("%s failed verification; use --force to import anyway", args[0])
		}

		ctx := cmd.Context()
		store, closeStore, err := openEventStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		stored, err := importEvents(ctx, store, export)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d event(s)\n", len(stored))
		return nil
	},
}

var eventsVerifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Check an export file for integrity problems",
	Long: `Reads an event export and checks that ids are unique, required fields
are present, image paths stay inside the uploads area and creation times
are ordered. Exits 1 when the file is invalid and 2 when it cannot be read.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := readExportFile(args[0])
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			os.Exit(2)
		}
		result := verifyEventExport(export)
		result.File = args[0]

		if verifyAsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				os.Exit(2)
			}
		} else {
			printVerifyResult(cmd.OutOrStdout(), result)
		}
		if !result.Valid {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsExportCmd, eventsImportCmd, eventsVerifyCmd)
	eventsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	eventsImportCmd.Flags().BoolVar(&importForce, "force", false, "Import even if verification fails")
	eventsVerifyCmd.Flags().BoolVar(&verifyAsJSON, "json", false, "Output results as JSON")
}

// exportEvents writes every stored event to w and returns how many were
// written.
func exportEvents(ctx context.Context, store storage.EventStore, w io.Writer, now time.Time) (int, error) {
	events, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing events: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(eventExport{ExportedAt: now.UTC(), Events: events}); err != nil {
		return 0, fmt.Errorf("writing export: %w", err)
	}
	return len(events), nil
}

// importEvents replaces the stored list with the events in export, keeping
// their order.
func importEvents(ctx context.Context, store storage.EventStore, export eventExport) ([]storage.Event, error) {
	fields := make([]storage.EventFields, 0, len(export.Events))
	for _, ev := range export.Events {
		fields = append(fields, storage.EventFields{
			Name:        ev.Name,
			Date:        ev.Date,
			Time:        ev.Time,
			Planner:     ev.Planner,
			Description: ev.Description,
			Image:       ev.Image,
		})
	}
	stored, err := store.ReplaceAll(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("replacing events: %w", err)
	}
	return stored, nil
}

func readExportFile(path string) (eventExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return eventExport{}, fmt.Errorf("cannot read file: %w", err)
	}
	var export eventExport
	if err := json.Unmarshal(data, &export); err != nil {
		return eventExport{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return export, nil
}
