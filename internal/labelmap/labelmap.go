// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package labelmap maps annotation categories to detection class ids and
// class names.
package labelmap

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const (
	// UnknownID and UnknownText are emitted for categories whose class id
	// has no name in the map.
	UnknownID   = 0
	UnknownText = "unknown"
)

// UnknownCategoryError reports a category that has no entry in the map.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// Map holds the category-to-class table and the class names.
type Map struct {
	Categories map[string]int64 `yaml:"categories"`
	Classes    map[int64]string `yaml:"classes"`
}

// Default returns the built-in table. Class ids follow the MS COCO label map.
func Default() *Map {
	return &Map{
		Categories: map[string]int64{
			"PERSON":         1,
			"STATIONARY_CAR": 3,
			"MOVING_CAR":     3,
		},
		Classes: map[int64]string{
			1: "person",
			3: "car",
		},
	}
}

// Load reads a YAML label map from path.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading label map: %w", err)
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing label map %s: %w", path, err)
	}
	if len(m.Categories) == 0 {
		return nil, fmt.Errorf("label map %s defines no categories", path)
	}
	return &m, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Map, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Lookup returns the class id and name for category. A category mapped to an
// id without a name yields UnknownID and UnknownText.
func (m *Map) Lookup(category string) (int64, string, error) {
	id, ok := m.Categories[category]
	if !ok {
		return 0, "", &UnknownCategoryError{Category: category}
	}
	text, ok := m.Classes[id]
	if !ok {
		return UnknownID, UnknownText, nil
	}
	return id, text, nil
}
