// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads .pdm annotation manifests. The JSON objects that
// hold images and boxes are read in file order, so records are emitted in
// the same order the manifest lists them.
package manifest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// ErrNoImages is returned when the manifest has no top-level "images" key.
var ErrNoImages = errors.New(`manifest has no "images" key`)

// MissingFieldError reports a required field absent from an image or box.
type MissingFieldError struct {
	Image string
	Box   string
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Box != "" {
		return fmt.Sprintf("image %q box %q: missing field %q", e.Image, e.Box, e.Field)
	}
	return fmt.Sprintf("image %q: missing field %q", e.Image, e.Field)
}

// Load reads and parses the manifest at path.
func Load(path string) (*types.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Decode parses a manifest from r. A key repeated within one object keeps
// its first position and takes the last value.
func Decode(r io.Reader) (*types.Manifest, error) {
	dec := json.NewDecoder(r)

	var m types.Manifest
	found := false
	err := eachKey(dec, func(key string) error {
		if key != "images" {
			return skipValue(dec)
		}
		found = true
		index := make(map[string]int)
		return eachKey(dec, func(imageKey string) error {
			img, err := decodeImage(dec, imageKey)
			if err != nil {
				return err
			}
			entry := types.ManifestImage{Key: imageKey, Image: img}
			if i, ok := index[imageKey]; ok {
				m.Images[i] = entry
				return nil
			}
			index[imageKey] = len(m.Images)
			m.Images = append(m.Images, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoImages
	}
	return &m, nil
}

type rawBoxEntry struct {
	key string
	raw json.RawMessage
}

func decodeImage(dec *json.Decoder, key string) (types.Image, error) {
	var (
		img                        types.Image
		hasPath, hasFlag, hasBoxes bool
		boxes                      []rawBoxEntry
	)
	err := eachKey(dec, func(field string) error {
		switch field {
		case "path":
			hasPath = true
			return dec.Decode(&img.Path)
		case "isFullyCategorized":
			hasFlag = true
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return err
			}
			img.IsFullyCategorized = truthy(raw)
			return nil
		case "categoryBoxes":
			// Boxes are held raw until the flag is known, since a skipped
			// image may carry incomplete boxes.
			hasBoxes = true
			boxes = boxes[:0]
			index := make(map[string]int)
			return eachKey(dec, func(boxKey string) error {
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return fmt.Errorf("box %q: %w", boxKey, err)
				}
				if i, ok := index[boxKey]; ok {
					boxes[i].raw = raw
					return nil
				}
				index[boxKey] = len(boxes)
				boxes = append(boxes, rawBoxEntry{key: boxKey, raw: raw})
				return nil
			})
		default:
			return skipValue(dec)
		}
	})
	if err != nil {
		return img, fmt.Errorf("image %q: %w", key, err)
	}

	if !hasFlag {
		return img, &MissingFieldError{Image: key, Field: "isFullyCategorized"}
	}
	if !img.IsFullyCategorized {
		return img, nil
	}
	if !hasPath {
		return img, &MissingFieldError{Image: key, Field: "path"}
	}
	if !hasBoxes {
		return img, &MissingFieldError{Image: key, Field: "categoryBoxes"}
	}

	img.CategoryBoxes = make([]types.BoxEntry, 0, len(boxes))
	for _, b := range boxes {
		box, err := decodeBox(b.raw, key, b.key)
		if err != nil {
			return img, err
		}
		img.CategoryBoxes = append(img.CategoryBoxes, types.BoxEntry{Key: b.key, Box: box})
	}
	return img, nil
}

// truthy reports whether a JSON value counts as true: false, null, zero,
// and empty strings, arrays, and objects are false.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

type rawBox struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Category *string  `json:"category"`
}

func decodeBox(data []byte, imageKey, boxKey string) (types.Box, error) {
	var raw rawBox
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Box{}, fmt.Errorf("image %q box %q: %w", imageKey, boxKey, err)
	}
	missing := func(field string) error {
		return &MissingFieldError{Image: imageKey, Box: boxKey, Field: field}
	}
	switch {
	case raw.X == nil:
		return types.Box{}, missing("x")
	case raw.Y == nil:
		return types.Box{}, missing("y")
	case raw.Width == nil:
		return types.Box{}, missing("width")
	case raw.Height == nil:
		return types.Box{}, missing("height")
	case raw.Category == nil:
		return types.Box{}, missing("category")
	}
	return types.Box{
		X:        *raw.X,
		Y:        *raw.Y,
		Width:    *raw.Width,
		Height:   *raw.Height,
		Category: *raw.Category,
	}, nil
}

// eachKey consumes a JSON object from dec and calls fn for each key in file
// order. fn must consume the value that follows the key.
func eachKey(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	// Closing brace.
	_, err = dec.Token()
	return err
}

func skipValue(dec *json.Decoder) error {
	var discard json.RawMessage
	return dec.Decode(&discard)
}
