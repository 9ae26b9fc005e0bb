// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdm2tfrecord/internal/example"
	"github.com/pdiddy/pdm2tfrecord/internal/tfrecord"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Verify a TFRecord file and summarize its examples",
	Long: `Inspect reads a TFRecord file, verifies the checksums of every record,
decodes each tf.train.Example, and prints its filename, dimensions, box
count, and class names. Every record is verified even when --limit
shortens the listing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return inspectFile(args[0], limit, jsonOutput, cmd.OutOrStdout())
	},
}

// inspectEntry summarizes one decoded record.
type inspectEntry struct {
	Index    int      `json:"index"`
	Filename string   `json:"filename"`
	Format   string   `json:"format"`
	Width    int64    `json:"width"`
	Height   int64    `json:"height"`
	Boxes    int      `json:"boxes"`
	Classes  []string `json:"classes"`
	Bytes    int      `json:"bytes"`
}

type inspectReport struct {
	Records int            `json:"records"`
	Boxes   int            `json:"boxes"`
	Entries []inspectEntry `json:"entries"`
}

func inspectFile(path string, limit int, jsonOutput bool, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	report := inspectReport{Entries: []inspectEntry{}}
	r := tfrecord.NewReader(f)
	for i := 0; ; i++ {
		data, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		e, err := example.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		rec, err := e.Record()
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		report.Records++
		report.Boxes += rec.NumBoxes()
		if limit > 0 && len(report.Entries) >= limit {
			continue
		}
		report.Entries = append(report.Entries, inspectEntry{
			Index:    i,
			Filename: string(rec.Filename),
			Format:   rec.Format,
			Width:    rec.Width,
			Height:   rec.Height,
			Boxes:    rec.NumBoxes(),
			Classes:  rec.ClassesText,
			Bytes:    len(data),
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	formatInspectOutput(w, report)
	return nil
}

func formatInspectOutput(w io.Writer, report inspectReport) {
	if report.Records == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-30s  %-11s  %-5s  %s\n", "#", "Filename", "Size", "Boxes", "Classes")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, e := range report.Entries {
		name := filepath.Base(e.Filename)
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Fprintf(w, "%-5d  %-30s  %-11s  %-5d  %s\n",
			e.Index, name, fmt.Sprintf("%dx%d", e.Width, e.Height), e.Boxes, strings.Join(uniqueStrings(e.Classes), ","))
	}

	fmt.Fprintf(w, "\n%d records, %d boxes\n", report.Records, report.Boxes)
}

// uniqueStrings returns ss without repeats, in first-seen order.
func uniqueStrings(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func init() {
	inspectCmd.Flags().Int("limit", 0, "maximum records to list (0 = all)")
	inspectCmd.Flags().Bool("json", false, "output the summary as JSON")

	rootCmd.AddCommand(inspectCmd)
}
