// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdm2tfrecord/internal/catalog"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the run catalog (runs, records, export)",
	Long: `Catalog reads the SQLite database that convert --catalog writes. Each
conversion run is stored with its settings and counts, and each written
record with its image key and byte range in the TFRecord file.`,
}

// --- runs subcommand ---

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List conversion runs, newest first",
	RunE:  runCatalogRuns,
}

func runCatalogRuns(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunsOutput(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRunsOutput(w io.Writer, runs []catalog.RunInfo, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-9s  %-7s  %-7s  %-5s  %s\n",
		"Run", "Started", "Status", "Written", "Skipped", "Boxes", "Output")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range runs {
		started := r.StartedAt
		if len(started) > 19 {
			started = started[:19]
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-9s  %-7d  %-7d  %-5d  %s\n",
			r.ID, started, r.Status, r.Written, r.Skipped, r.Boxes, r.OutputPath)
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// --- records subcommand ---

var catalogRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the records written by a run",
	Long: `Records lists the records of one run (the latest by default) in write
order, with their byte offset and length in the TFRecord file.`,
	RunE: runCatalogRecords,
}

func runCatalogRecords(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.Records(cmd.Context(), recordQueryFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRecordsOutput(cmd.OutOrStdout(), rows, jsonOutput)
}

func formatRecordsOutput(w io.Writer, rows []catalog.RecordRow, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-30s  %-11s  %-5s  %-12s  %s\n",
		"Seq", "Image", "Size", "Boxes", "Offset", "Length")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range rows {
		key := r.ImageKey
		if len(key) > 30 {
			key = key[:27] + "..."
		}
		fmt.Fprintf(w, "%-5d  %-30s  %-11s  %-5d  %-12d  %d\n",
			r.Seq, key, fmt.Sprintf("%dx%d", r.Width, r.Height), r.Boxes, r.Offset, r.Length)
	}

	fmt.Fprintf(w, "\n%d records\n", len(rows))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run and its records to YAML or JSON",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	q := recordQueryFromFlags(cmd)
	switch format {
	case "yaml", "":
		if out == "" {
			out = "catalog-export.yaml"
		}
		err = store.ExportYAML(cmd.Context(), out, q)
	case "json":
		if out == "" {
			out = "catalog-export.json"
		}
		err = store.ExportJSON(cmd.Context(), out, q)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
	return nil
}

// --- shared helpers ---

// openCatalog opens the database named by --catalog, falling back to the
// catalog value that convert reads from the config file or environment.
func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		path = viper.GetString(types.KeyCatalog)
	}
	if path == "" {
		return nil, &types.MissingConfigError{Name: types.KeyCatalog}
	}
	return catalog.Open(path)
}

func recordQueryFromFlags(cmd *cobra.Command) catalog.RecordQuery {
	runID, _ := cmd.Flags().GetString("run")
	image, _ := cmd.Flags().GetString("image")
	minBoxes, _ := cmd.Flags().GetInt("min-boxes")
	limit, _ := cmd.Flags().GetInt("limit")

	return catalog.RecordQuery{
		RunID:      runID,
		ImageKey:   image,
		MinBoxes:   minBoxes,
		MaxResults: limit,
	}
}

func init() {
	catalogCmd.PersistentFlags().String("catalog", "", "run catalog database (default: the catalog config value)")

	catalogRunsCmd.Flags().Int("limit", 0, "maximum runs (0 = use default)")
	catalogRunsCmd.Flags().Bool("json", false, "output runs as JSON")

	for _, c := range []*cobra.Command{catalogRecordsCmd, catalogExportCmd} {
		c.Flags().String("run", "", "run ID (default: latest run)")
		c.Flags().String("image", "", "filter by image key substring")
		c.Flags().Int("min-boxes", 0, "keep records with at least this many boxes")
	}
	catalogRecordsCmd.Flags().Int("limit", 0, "maximum records (0 = use default)")
	catalogRecordsCmd.Flags().Bool("json", false, "output records as JSON")

	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("out", "", "output file (default: catalog-export.yaml or .json)")

	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogRecordsCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
