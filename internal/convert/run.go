// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pdiddy/pdm2tfrecord/internal/example"
	"github.com/pdiddy/pdm2tfrecord/internal/labelmap"
	"github.com/pdiddy/pdm2tfrecord/internal/manifest"
	"github.com/pdiddy/pdm2tfrecord/internal/tfrecord"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// Entry describes one record after it was appended to the output.
type Entry struct {
	Seq      int
	ImageKey string
	Filename string
	Width    int64
	Height   int64
	Boxes    int
	Offset   int64
	Length   int64
}

// Observer is notified after each record is written. The run catalog
// implements it.
type Observer interface {
	RecordWritten(ctx context.Context, e Entry) error
}

// Summary holds the outcome of a conversion run.
type Summary struct {
	Written int
	Skipped int
	Boxes   int
}

// Total returns the number of manifest images processed.
func (s Summary) Total() int {
	return s.Written + s.Skipped
}

// Run converts the manifest named in cfg into a TFRecord file. Progress is
// printed to w; obs may be nil. Any error aborts the run and leaves the
// records written so far in the output file.
func Run(ctx context.Context, cfg types.ConversionConfig, obs Observer, w io.Writer) (summary Summary, err error) {
	if err := cfg.Validate(); err != nil {
		return summary, err
	}
	if w == nil {
		w = io.Discard
	}

	labels, err := labelmap.LoadOrDefault(cfg.LabelMapPath)
	if err != nil {
		return summary, err
	}

	if cfg.ManifestPath, err = filepath.Abs(cfg.ManifestPath); err != nil {
		return summary, fmt.Errorf("resolving manifest path: %w", err)
	}
	if cfg.ImagesDir, err = filepath.Abs(cfg.ImagesDir); err != nil {
		return summary, fmt.Errorf("resolving images directory: %w", err)
	}

	out, err := tfrecord.Create(cfg.OutputPath)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return summary, err
	}

	b := NewBuilder(cfg, labels, w)
	for _, mi := range m.Images {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if !mi.Image.IsFullyCategorized {
			fmt.Fprintf(w, "skipped: %s (not fully categorized)\n", mi.Key)
			summary.Skipped++
			continue
		}

		rec, err := b.Build(mi.Image)
		if err != nil {
			return summary, fmt.Errorf("image %q: %w", mi.Key, err)
		}

		seq := out.Count()
		offset, length, err := out.Write(example.FromRecord(rec).Marshal())
		if err != nil {
			return summary, err
		}

		if obs != nil {
			// Observers only see records whose bytes reached the file.
			if err := out.Flush(); err != nil {
				return summary, fmt.Errorf("flushing output: %w", err)
			}
			entry := Entry{
				Seq:      seq,
				ImageKey: mi.Key,
				Filename: string(rec.Filename),
				Width:    rec.Width,
				Height:   rec.Height,
				Boxes:    rec.NumBoxes(),
				Offset:   offset,
				Length:   length,
			}
			if err := obs.RecordWritten(ctx, entry); err != nil {
				return summary, fmt.Errorf("recording %q: %w", mi.Key, err)
			}
		}

		fmt.Fprintf(w, "written: %s (%d boxes)\n", mi.Key, rec.NumBoxes())
		summary.Written++
		summary.Boxes += rec.NumBoxes()
	}

	fmt.Fprintf(w, "\nSummary: %d written, %d skipped, %d boxes (total: %d)\n",
		summary.Written, summary.Skipped, summary.Boxes, summary.Total())
	return summary, nil
}
