// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// Configuration keys shared by flags, the config file, and the environment.
const (
	KeyManifestPath = "pdm_file"
	KeyImagesDir    = "images_dir"
	KeyOutputPath   = "output_path"
	KeyLabelMap     = "label_map"
	KeyNormalize    = "normalize"
	KeyMaxSide      = "max_side"
	KeyJPEGQuality  = "jpeg_quality"
	KeyCatalog      = "catalog"
)

// FlagName returns the command-line flag spelling of a configuration key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// DefaultJPEGQuality is the re-encode quality used when images are downscaled.
const DefaultJPEGQuality = 95

// MissingConfigError reports a required configuration value that was not set.
type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s is required (flag --%s)", e.Name, FlagName(e.Name))
}

// ConversionConfig holds settings for one manifest-to-TFRecord run.
// It is built once by the CLI and passed explicitly to the driver.
type ConversionConfig struct {
	// ManifestPath is the path to the .pdm JSON manifest.
	ManifestPath string `json:"pdm_file" yaml:"pdm_file"`

	// ImagesDir is the base directory that image paths are resolved against.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// OutputPath is the destination TFRecord file. It is truncated if present.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// LabelMapPath is an optional YAML label map replacing the built-in table.
	LabelMapPath string `json:"label_map,omitempty" yaml:"label_map,omitempty"`

	// Normalize divides box coordinates by the image dimensions so they
	// fall in [0,1]. Off by default.
	Normalize bool `json:"normalize" yaml:"normalize"`

	// MaxSide downscales images whose long side exceeds it (0 disables).
	MaxSide int `json:"max_side" yaml:"max_side"`

	// JPEGQuality is the quality for re-encoded images (default 95).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// CatalogPath is an optional SQLite database that records each run.
	CatalogPath string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// Validate checks that the three required paths are present. The error
// names the first missing value.
func (c ConversionConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{KeyManifestPath, c.ManifestPath},
		{KeyImagesDir, c.ImagesDir},
		{KeyOutputPath, c.OutputPath},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingConfigError{Name: r.name}
		}
	}
	if c.MaxSide < 0 {
		return fmt.Errorf("max_side must not be negative, got %d", c.MaxSide)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	return nil
}

// Quality returns the configured JPEG quality or the default.
func (c ConversionConfig) Quality() int {
	if c.JPEGQuality == 0 {
		return DefaultJPEGQuality
	}
	return c.JPEGQuality
}
