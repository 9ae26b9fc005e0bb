//go:build mage

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const sampleDir = "output/sample"

// sampleManifest describes the images written by Sample.
const sampleManifest = `{
  "images": {
    "crossing-001": {
      "path": "crossing-001.jpg",
      "isFullyCategorized": true,
      "categoryBoxes": {
        "p1": {"x": 80, "y": 120, "width": 40, "height": 100, "category": "PERSON"},
        "c1": {"x": 220, "y": 160, "width": 120, "height": 60, "category": "MOVING_CAR"}
      }
    },
    "crossing-002": {
      "path": "crossing-002.jpg",
      "isFullyCategorized": false,
      "categoryBoxes": {}
    },
    "parking-001": {
      "path": "parking-001.jpg",
      "isFullyCategorized": true,
      "categoryBoxes": {
        "c1": {"x": 100, "y": 100, "width": 150, "height": 80, "category": "STATIONARY_CAR"}
      }
    }
  }
}
`

// Sample writes a small synthetic dataset to output/sample, converts it,
// and inspects the result.
func Sample() error {
	mg.Deps(Build)

	imagesDir := filepath.Join(sampleDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", imagesDir, err)
	}
	for _, name := range []string{"crossing-001.jpg", "crossing-002.jpg", "parking-001.jpg"} {
		if err := writeSampleImage(filepath.Join(imagesDir, name), 400, 300); err != nil {
			return err
		}
	}

	manifest := filepath.Join(sampleDir, "sample.pdm")
	if err := os.WriteFile(manifest, []byte(sampleManifest), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", manifest, err)
	}

	output := filepath.Join(sampleDir, "sample.tfrecord")
	err := sh.RunV(binPath, "convert",
		"--pdm-file", manifest,
		"--images-dir", imagesDir,
		"--output-path", output,
		"--catalog", filepath.Join(sampleDir, "catalog.db"),
	)
	if err != nil {
		return err
	}
	return sh.RunV(binPath, "inspect", output)
}

// writeSampleImage writes a w x h JPEG with a horizontal gradient.
func writeSampleImage(path string, w, h int) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
