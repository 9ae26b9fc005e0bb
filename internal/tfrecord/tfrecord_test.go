// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tfrecord

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskedCRC(t *testing.T) {
	// crc32c("123456789") is the standard check value 0xe3069283.
	assert.Equal(t, uint32(0xc78ab0e5), maskedCRC([]byte("123456789")))
}

func TestRoundTrip(t *testing.T) {
	records := [][]byte{
		[]byte("first"),
		{},
		bytes.Repeat([]byte{0xab}, 70000),
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	var wantOffset int64
	for i, rec := range records {
		off, n, err := w.Write(rec)
		require.NoError(t, err)
		assert.Equal(t, wantOffset, off, "record %d offset", i)
		assert.Equal(t, int64(16+len(rec)), n)
		wantOffset += n
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.Count())
	assert.Equal(t, int(wantOffset), buf.Len())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range records {
		assert.True(t, bytes.Equal(records[i], got[i]), "record %d differs", i)
	}
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, _, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	b := buf.Bytes()
	require.Len(t, b, 19)
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(b[:8]))
	assert.Equal(t, maskedCRC(b[:8]), binary.LittleEndian.Uint32(b[8:12]))
	assert.Equal(t, []byte("abc"), b[12:15])
	assert.Equal(t, maskedCRC([]byte("abc")), binary.LittleEndian.Uint32(b[15:]))
}

func TestReader_Corrupt(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		_, _, err := w.Write([]byte("payload"))
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		return buf.Bytes()
	}

	tests := []struct {
		name    string
		mutate  func(b []byte) []byte
		wantErr error
	}{
		{"flipped data byte", func(b []byte) []byte { b[13] ^= 0xff; return b }, ErrCorrupt},
		{"flipped length crc", func(b []byte) []byte { b[9] ^= 0x01; return b }, ErrCorrupt},
		{"truncated data", func(b []byte) []byte { return b[:15] }, io.ErrUnexpectedEOF},
		{"truncated header", func(b []byte) []byte { return b[:5] }, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.mutate(encode()))).Next()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestReader_Empty(t *testing.T) {
	_, err := NewReader(bytes.NewReader(nil)).Next()
	assert.Equal(t, io.EOF, err)
}

func TestCreate_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tfrecord")
	require.NoError(t, os.WriteFile(path, []byte("stale contents"), 0o644))

	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestCreate_MissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "no", "such", "out.tfrecord"))
	assert.Error(t, err)
}
