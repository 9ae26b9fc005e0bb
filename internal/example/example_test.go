// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package example

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

func sampleRecord() *types.Record {
	r := &types.Record{
		Height:   200,
		Width:    100,
		Filename: []byte("/data/images/a.jpg"),
		SourceID: []byte("/data/images/a.jpg"),
		Encoded:  []byte{0xff, 0xd8, 0xff, 0xd9},
		Format:   types.ImageFormatJPEG,
	}
	r.AppendBox(40, 60, 80, 120, "person", 1)
	r.AppendBox(0.25, 0.75, 1.5, 2.5, "car", 3)
	return r
}

func TestRecordRoundTrip(t *testing.T) {
	want := sampleRecord()

	e, err := Unmarshal(FromRecord(want).Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, err := e.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRoundTrip_NoBoxes(t *testing.T) {
	want := &types.Record{
		Height:      10,
		Width:       20,
		Filename:    []byte("f"),
		SourceID:    []byte("f"),
		Encoded:     []byte("x"),
		Format:      types.ImageFormatJPEG,
		XMins:       []float64{},
		XMaxs:       []float64{},
		YMins:       []float64{},
		YMaxs:       []float64{},
		ClassesText: []string{},
		Classes:     []int64{},
	}

	e, err := Unmarshal(FromRecord(want).Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{KeyXMin, KeyClassText, KeyClassLabel} {
		if _, ok := e.Features[key]; !ok {
			t.Errorf("empty feature %s dropped", key)
		}
	}
	got, err := e.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a := FromRecord(sampleRecord()).Marshal()
	b := FromRecord(sampleRecord()).Marshal()
	if !cmp.Equal(a, b) {
		t.Error("Marshal output differs between identical examples")
	}
}

func TestFeatureKinds(t *testing.T) {
	e := New()
	e.Set("b", BytesFeature([]byte("one"), []byte("two")))
	e.Set("f", FloatFeature(1.5, -2))
	e.Set("i", Int64Feature(-1, 0, 1<<40))

	got, err := Unmarshal(e.Marshal())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("example mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_UnpackedScalars(t *testing.T) {
	// Int64List with two unpacked values.
	var list []byte
	list = protowire.AppendTag(list, 1, protowire.VarintType)
	list = protowire.AppendVarint(list, 7)
	list = protowire.AppendTag(list, 1, protowire.VarintType)
	list = protowire.AppendVarint(list, 9)

	var feature []byte
	feature = protowire.AppendTag(feature, 3, protowire.BytesType)
	feature = protowire.AppendBytes(feature, list)

	var entry []byte
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "n")
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, feature)

	var features []byte
	features = protowire.AppendTag(features, 1, protowire.BytesType)
	features = protowire.AppendBytes(features, entry)

	var msg []byte
	msg = protowire.AppendTag(msg, 1, protowire.BytesType)
	msg = protowire.AppendBytes(msg, features)

	e, err := Unmarshal(msg)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]int64{7, 9}, e.Features["n"].Int64s); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_Truncated(t *testing.T) {
	b := FromRecord(sampleRecord()).Marshal()
	if _, err := Unmarshal(b[:len(b)-3]); err == nil {
		t.Error("expected error for truncated message")
	}
}

func TestRecord_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Example)
	}{
		{"missing height", func(e *Example) { delete(e.Features, KeyHeight) }},
		{"wrong kind", func(e *Example) { e.Set(KeyWidth, StringsFeature("100")) }},
		{"length mismatch", func(e *Example) { e.Set(KeyXMin, FloatFeature(1)) }},
		{"two filenames", func(e *Example) { e.Set(KeyFilename, StringsFeature("a", "b")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromRecord(sampleRecord())
			tt.mutate(e)
			if _, err := e.Record(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
