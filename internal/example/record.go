// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package example

import (
	"fmt"

	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// Feature keys of the TensorFlow Object Detection API input format.
const (
	KeyHeight     = "image/height"
	KeyWidth      = "image/width"
	KeyFilename   = "image/filename"
	KeySourceID   = "image/source_id"
	KeyEncoded    = "image/encoded"
	KeyFormat     = "image/format"
	KeyXMin       = "image/object/bbox/xmin"
	KeyXMax       = "image/object/bbox/xmax"
	KeyYMin       = "image/object/bbox/ymin"
	KeyYMax       = "image/object/bbox/ymax"
	KeyClassText  = "image/object/class/text"
	KeyClassLabel = "image/object/class/label"
)

// FromRecord builds the Example for r.
func FromRecord(r *types.Record) *Example {
	e := New()
	e.Set(KeyHeight, Int64Feature(r.Height))
	e.Set(KeyWidth, Int64Feature(r.Width))
	e.Set(KeyFilename, BytesFeature(r.Filename))
	e.Set(KeySourceID, BytesFeature(r.SourceID))
	e.Set(KeyEncoded, BytesFeature(r.Encoded))
	e.Set(KeyFormat, StringsFeature(r.Format))
	e.Set(KeyXMin, FloatFeature(r.XMins...))
	e.Set(KeyXMax, FloatFeature(r.XMaxs...))
	e.Set(KeyYMin, FloatFeature(r.YMins...))
	e.Set(KeyYMax, FloatFeature(r.YMaxs...))
	e.Set(KeyClassText, StringsFeature(r.ClassesText...))
	e.Set(KeyClassLabel, Int64Feature(r.Classes...))
	return e
}

// Record converts the Example back into a Record. Coordinates come back at
// float32 precision.
func (e *Example) Record() (*types.Record, error) {
	r := &types.Record{}
	var err error

	scalar := func(key string) int64 {
		if err != nil {
			return 0
		}
		var v []int64
		v, err = e.int64s(key)
		if err == nil && len(v) != 1 {
			err = fmt.Errorf("feature %s: want 1 value, got %d", key, len(v))
		}
		if err != nil {
			return 0
		}
		return v[0]
	}
	single := func(key string) []byte {
		if err != nil {
			return nil
		}
		var v [][]byte
		v, err = e.bytes(key)
		if err == nil && len(v) != 1 {
			err = fmt.Errorf("feature %s: want 1 value, got %d", key, len(v))
		}
		if err != nil {
			return nil
		}
		return v[0]
	}
	floats := func(key string) []float64 {
		if err != nil {
			return nil
		}
		var v []float32
		v, err = e.floats(key)
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out
	}

	r.Height = scalar(KeyHeight)
	r.Width = scalar(KeyWidth)
	r.Filename = single(KeyFilename)
	r.SourceID = single(KeySourceID)
	r.Encoded = single(KeyEncoded)
	r.Format = string(single(KeyFormat))
	r.XMins = floats(KeyXMin)
	r.XMaxs = floats(KeyXMax)
	r.YMins = floats(KeyYMin)
	r.YMaxs = floats(KeyYMax)
	if err != nil {
		return nil, err
	}

	texts, err := e.bytes(KeyClassText)
	if err != nil {
		return nil, err
	}
	r.ClassesText = make([]string, len(texts))
	for i, t := range texts {
		r.ClassesText[i] = string(t)
	}
	if r.Classes, err = e.int64s(KeyClassLabel); err != nil {
		return nil, err
	}

	n := len(r.Classes)
	for key, l := range map[string]int{
		KeyXMin: len(r.XMins), KeyXMax: len(r.XMaxs),
		KeyYMin: len(r.YMins), KeyYMax: len(r.YMaxs),
		KeyClassText: len(r.ClassesText),
	} {
		if l != n {
			return nil, fmt.Errorf("feature %s has %d values, %s has %d", key, l, KeyClassLabel, n)
		}
	}
	return r, nil
}

func (e *Example) feature(key string, kind Kind) (Feature, error) {
	f, ok := e.Features[key]
	if !ok {
		return Feature{}, fmt.Errorf("missing feature %s", key)
	}
	if f.Kind != kind {
		return Feature{}, fmt.Errorf("feature %s is %s, want %s", key, f.Kind, kind)
	}
	return f, nil
}

func (e *Example) bytes(key string) ([][]byte, error) {
	f, err := e.feature(key, KindBytes)
	return f.Bytes, err
}

func (e *Example) floats(key string) ([]float32, error) {
	f, err := e.feature(key, KindFloat)
	return f.Floats, err
}

func (e *Example) int64s(key string) ([]int64, error) {
	f, err := e.feature(key, KindInt64)
	return f.Int64s, err
}
