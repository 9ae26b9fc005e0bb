// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageData is an image file read into memory with its decoded dimensions.
type ImageData struct {
	Bytes  []byte
	Width  int
	Height int

	// Format is the container detected from the header, e.g. "jpeg" or "png".
	Format string
}

// ReadImage reads the file at path once and reads its dimensions from the
// in-memory bytes.
func ReadImage(path string) (*ImageData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return &ImageData{
		Bytes:  data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

// LongSide returns the larger of width and height.
func (d *ImageData) LongSide() int {
	return max(d.Width, d.Height)
}

// Downscale fits the image into maxSide×maxSide and re-encodes it as JPEG.
// It returns the new image and the horizontal and vertical scale factors.
func Downscale(d *ImageData, maxSide, quality int) (*ImageData, float64, float64, error) {
	img, err := imaging.Decode(bytes.NewReader(d.Bytes))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image for resize: %w", err)
	}
	fit := imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fit, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding resized image: %w", err)
	}

	b := fit.Bounds()
	out := &ImageData{
		Bytes:  buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: "jpeg",
	}
	sx := float64(out.Width) / float64(d.Width)
	sy := float64(out.Height) / float64(d.Height)
	return out, sx, sy, nil
}
