// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package example encodes and decodes tf.train.Example messages.
//
// The wire layout follows tensorflow/core/example/{example,feature}.proto:
//
//	Example   { Features features = 1; }
//	Features  { map<string, Feature> feature = 1; }
//	Feature   { oneof kind { BytesList bytes_list = 1;
//	                         FloatList float_list = 2;
//	                         Int64List int64_list = 3; } }
//	BytesList { repeated bytes value = 1; }
//	FloatList { repeated float value = 1 [packed = true]; }
//	Int64List { repeated int64 value = 1 [packed = true]; }
package example

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind identifies which list a Feature carries.
type Kind int

const (
	KindNone Kind = iota
	KindBytes
	KindFloat
	KindInt64
)

func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes_list"
	case KindFloat:
		return "float_list"
	case KindInt64:
		return "int64_list"
	default:
		return "none"
	}
}

// Feature is one named value list in an Example.
type Feature struct {
	Kind   Kind
	Bytes  [][]byte
	Floats []float32
	Int64s []int64
}

// BytesFeature returns a bytes_list feature.
func BytesFeature(values ...[]byte) Feature {
	if values == nil {
		values = [][]byte{}
	}
	return Feature{Kind: KindBytes, Bytes: values}
}

// StringsFeature returns a bytes_list feature holding the UTF-8 strings.
func StringsFeature(values ...string) Feature {
	b := make([][]byte, len(values))
	for i, v := range values {
		b[i] = []byte(v)
	}
	return Feature{Kind: KindBytes, Bytes: b}
}

// FloatFeature returns a float_list feature. Values are narrowed to float32.
func FloatFeature(values ...float64) Feature {
	f := make([]float32, len(values))
	for i, v := range values {
		f[i] = float32(v)
	}
	return Feature{Kind: KindFloat, Floats: f}
}

// Int64Feature returns an int64_list feature.
func Int64Feature(values ...int64) Feature {
	if values == nil {
		values = []int64{}
	}
	return Feature{Kind: KindInt64, Int64s: values}
}

// Example is a decoded tf.train.Example.
type Example struct {
	Features map[string]Feature
}

// New returns an empty Example.
func New() *Example {
	return &Example{Features: make(map[string]Feature)}
}

// Set stores f under name.
func (e *Example) Set(name string, f Feature) {
	e.Features[name] = f
}

// Marshal serializes the Example. Features are written in key order so the
// output is deterministic.
func (e *Example) Marshal() []byte {
	names := make([]string, 0, len(e.Features))
	for name := range e.Features {
		names = append(names, name)
	}
	sort.Strings(names)

	var features []byte
	for _, name := range names {
		var entry []byte
		entry = protowire.AppendTag(entry, 1, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, 2, protowire.BytesType)
		entry = protowire.AppendBytes(entry, marshalFeature(e.Features[name]))

		features = protowire.AppendTag(features, 1, protowire.BytesType)
		features = protowire.AppendBytes(features, entry)
	}

	var out []byte
	out = protowire.AppendTag(out, 1, protowire.BytesType)
	out = protowire.AppendBytes(out, features)
	return out
}

func marshalFeature(f Feature) []byte {
	var list []byte
	switch f.Kind {
	case KindBytes:
		for _, v := range f.Bytes {
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, v)
		}
	case KindFloat:
		if len(f.Floats) > 0 {
			var packed []byte
			for _, v := range f.Floats {
				packed = protowire.AppendFixed32(packed, math.Float32bits(v))
			}
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	case KindInt64:
		if len(f.Int64s) > 0 {
			var packed []byte
			for _, v := range f.Int64s {
				packed = protowire.AppendVarint(packed, uint64(v))
			}
			list = protowire.AppendTag(list, 1, protowire.BytesType)
			list = protowire.AppendBytes(list, packed)
		}
	default:
		return nil
	}

	var out []byte
	out = protowire.AppendTag(out, protowire.Number(f.Kind), protowire.BytesType)
	out = protowire.AppendBytes(out, list)
	return out
}

// Unmarshal parses a serialized Example.
func Unmarshal(b []byte) (*Example, error) {
	e := New()
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != 1 || typ != protowire.BytesType {
			return nil
		}
		return eachField(v, func(num protowire.Number, typ protowire.Type, entry []byte) error {
			if num != 1 || typ != protowire.BytesType {
				return nil
			}
			name, f, err := unmarshalEntry(entry)
			if err != nil {
				return err
			}
			e.Features[name] = f
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("decoding example: %w", err)
	}
	return e, nil
}

func unmarshalEntry(b []byte) (string, Feature, error) {
	var (
		name string
		f    Feature
	)
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case 1:
			name = string(v)
		case 2:
			var err error
			f, err = unmarshalFeature(v)
			return err
		}
		return nil
	})
	return name, f, err
}

func unmarshalFeature(b []byte) (Feature, error) {
	var f Feature
	err := eachField(b, func(num protowire.Number, typ protowire.Type, list []byte) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch Kind(num) {
		case KindBytes:
			f = Feature{Kind: KindBytes, Bytes: [][]byte{}}
			return eachField(list, func(num protowire.Number, typ protowire.Type, v []byte) error {
				if num == 1 && typ == protowire.BytesType {
					f.Bytes = append(f.Bytes, append([]byte(nil), v...))
				}
				return nil
			})
		case KindFloat:
			f = Feature{Kind: KindFloat, Floats: []float32{}}
			return eachScalar(list, protowire.Fixed32Type, func(x uint64) {
				f.Floats = append(f.Floats, math.Float32frombits(uint32(x)))
			})
		case KindInt64:
			f = Feature{Kind: KindInt64, Int64s: []int64{}}
			return eachScalar(list, protowire.VarintType, func(x uint64) {
				f.Int64s = append(f.Int64s, int64(x))
			})
		}
		return nil
	})
	return f, err
}

// eachField walks the top-level fields of a message. For length-delimited
// fields v is the payload; for other wire types v is the raw value bytes.
func eachField(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var v []byte
		if typ == protowire.BytesType {
			var m int
			v, m = protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			n = m
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			v = b[:n]
		}
		b = b[n:]

		if err := fn(num, typ, v); err != nil {
			return err
		}
	}
	return nil
}

// eachScalar decodes field 1 of a list message holding scalars of wire type
// scalar, accepting both packed and unpacked encodings.
func eachScalar(b []byte, scalar protowire.Type, fn func(uint64)) error {
	consume := func(p []byte) (uint64, int) {
		if scalar == protowire.Fixed32Type {
			v, n := protowire.ConsumeFixed32(p)
			return uint64(v), n
		}
		return protowire.ConsumeVarint(p)
	}
	return eachField(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != 1 {
			return nil
		}
		switch typ {
		case protowire.BytesType:
			for len(v) > 0 {
				x, n := consume(v)
				if n < 0 {
					return protowire.ParseError(n)
				}
				fn(x)
				v = v[n:]
			}
		case scalar:
			x, n := consume(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			fn(x)
		}
		return nil
	})
}
