// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdm2tfrecord tool:
// the annotation manifest, the conversion settings, and the output record.
package types

// Box is one bounding-box annotation given as center and extent.
type Box struct {
	// X and Y are the center of the box.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Width and Height are in the same units as X and Y.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Category is the annotation label, e.g. "PERSON" or "MOVING_CAR".
	Category string `json:"category"`
}

// BoxEntry pairs a box with its key in the manifest.
type BoxEntry struct {
	Key string
	Box Box
}

// Image is one annotated image in the manifest.
type Image struct {
	// Path is the image file path relative to the images directory.
	Path string

	// IsFullyCategorized gates inclusion in the output.
	IsFullyCategorized bool

	// CategoryBoxes lists the boxes in manifest key order.
	CategoryBoxes []BoxEntry
}

// ManifestImage pairs an image with its key in the manifest.
type ManifestImage struct {
	Key   string
	Image Image
}

// Manifest is a loaded .pdm file. Images keep the key order of the file.
type Manifest struct {
	Images []ManifestImage
}
