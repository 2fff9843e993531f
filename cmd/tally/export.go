package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goodtune/tally/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all activities, goals and time entries",
	Example: `  tally export > tally.yaml
  tally export --format json --output backup.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format: yaml or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to FILE instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

// exportDocument is the full dump written by the export command
type exportDocument struct {
	ExportedAt time.Time           `json:"exported_at" yaml:"exported_at"`
	Activities []storage.Activity  `json:"activities" yaml:"activities"`
	Goals      []storage.Goal      `json:"goals" yaml:"goals"`
	Entries    []storage.TimeEntry `json:"entries" yaml:"entries"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "yaml" && exportFormat != "json" {
		return fmt.Errorf("unsupported export format: %s (must be yaml or json)", exportFormat)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := collectExport(cmd.Context(), a.store, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	if err := writeExport(out, doc, exportFormat); err != nil {
		return err
	}

	a.logger.Info().
		Int("activities", len(doc.Activities)).
		Int("goals", len(doc.Goals)).
		Int("entries", len(doc.Entries)).
		Str("format", exportFormat).
		Msg("Exported data")
	return nil
}

func collectExport(ctx context.Context, store storage.Store, now time.Time) (*exportDocument, error) {
	activities, err := store.Activities().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	goals, err := store.Goals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	entries, err := store.Entries().Query(ctx, storage.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}

	return &exportDocument{
		ExportedAt: now,
		Activities: activities,
		Goals:      goals,
		Entries:    entries,
	}, nil
}

func writeExport(w io.Writer, doc *exportDocument, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
		return enc.Close()
	}
}
