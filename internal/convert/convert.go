// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns annotated manifest images into detection records
// and writes them to a TFRecord file.
package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdm2tfrecord/internal/labelmap"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// Builder assembles one Record per image.
type Builder struct {
	imagesDir string
	labels    *labelmap.Map
	normalize bool
	maxSide   int
	quality   int
	w         io.Writer
}

// NewBuilder returns a Builder that resolves image paths against
// cfg.ImagesDir and maps categories through labels. Warnings go to w.
func NewBuilder(cfg types.ConversionConfig, labels *labelmap.Map, w io.Writer) *Builder {
	if w == nil {
		w = io.Discard
	}
	return &Builder{
		imagesDir: cfg.ImagesDir,
		labels:    labels,
		normalize: cfg.Normalize,
		maxSide:   cfg.MaxSide,
		quality:   cfg.Quality(),
		w:         w,
	}
}

// Build reads the image file and converts every box. It writes nothing.
func (b *Builder) Build(img types.Image) (*types.Record, error) {
	path := imagePath(b.imagesDir, img.Path)

	data, err := ReadImage(path)
	if err != nil {
		return nil, err
	}

	sx, sy := 1.0, 1.0
	if b.maxSide > 0 && data.LongSide() > b.maxSide {
		data, sx, sy, err = Downscale(data, b.maxSide, b.quality)
		if err != nil {
			return nil, fmt.Errorf("resizing %s: %w", path, err)
		}
	}
	if data.Format != types.ImageFormatJPEG {
		fmt.Fprintf(b.w, "warning: %s is %s, tagging as %s\n", path, data.Format, types.ImageFormatJPEG)
	}

	n := len(img.CategoryBoxes)
	rec := &types.Record{
		Height:      int64(data.Height),
		Width:       int64(data.Width),
		Filename:    []byte(path),
		SourceID:    []byte(path),
		Encoded:     data.Bytes,
		Format:      types.ImageFormatJPEG,
		XMins:       make([]float64, 0, n),
		XMaxs:       make([]float64, 0, n),
		YMins:       make([]float64, 0, n),
		YMaxs:       make([]float64, 0, n),
		ClassesText: make([]string, 0, n),
		Classes:     make([]int64, 0, n),
	}

	for _, entry := range img.CategoryBoxes {
		box := entry.Box
		xmin, xmax, ymin, ymax := SizeToCoords(box.X*sx, box.Y*sy, box.Width*sx, box.Height*sy)
		if b.normalize {
			xmin, xmax, ymin, ymax = Normalize(xmin, xmax, ymin, ymax, rec.Width, rec.Height)
		}

		id, text, err := b.labels.Lookup(box.Category)
		if err != nil {
			return nil, fmt.Errorf("box %q: %w", entry.Key, err)
		}
		rec.AppendBox(xmin, xmax, ymin, ymax, text, id)
	}

	return rec, nil
}

// imagePath resolves p against dir. An absolute p is used unchanged, and
// the result is not cleaned, so "." and ".." segments stay in the filename.
func imagePath(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + p
	}
	return dir + string(filepath.Separator) + p
}
