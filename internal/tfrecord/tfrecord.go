// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tfrecord reads and writes TFRecord files.
//
// Each record is framed as
//
//	uint64 length
//	uint32 masked crc32c of length
//	byte   data[length]
//	uint32 masked crc32c of data
//
// with all integers little-endian.
package tfrecord

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// ErrCorrupt is returned when a record checksum does not match.
var ErrCorrupt = errors.New("tfrecord: checksum mismatch")

const (
	headerSize  = 12
	footerSize  = 4
	maskDelta   = 0xa282ead8
	maxRecordMB = 1 << 10
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func maskedCRC(b []byte) uint32 {
	crc := crc32.Checksum(b, castagnoli)
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Writer appends records to an underlying stream.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	offset int64
	count  int
}

// NewWriter returns a Writer on w. If w is an io.Closer, Close closes it.
func NewWriter(w io.Writer) *Writer {
	tw := &Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		tw.closer = c
	}
	return tw
}

// Create creates or truncates the file at path and returns a Writer on it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return NewWriter(f), nil
}

// Write appends one record and returns the byte offset where its frame
// starts and the frame length.
func (w *Writer) Write(data []byte) (offset, length int64, err error) {
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(data))

	for _, chunk := range [][]byte{header[:], data, footer[:]} {
		if _, err := w.w.Write(chunk); err != nil {
			return 0, 0, fmt.Errorf("writing record %d: %w", w.count, err)
		}
	}

	offset = w.offset
	length = int64(headerSize + len(data) + footerSize)
	w.offset += length
	w.count++
	return offset, length, nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush writes buffered data to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the underlying stream. The stream is closed even
// when the flush fails.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

// Reader reads records sequentially.
type Reader struct {
	r     *bufio.Reader
	count int
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF at a clean end of stream,
// io.ErrUnexpectedEOF for a truncated record, and ErrCorrupt for a checksum
// mismatch.
func (r *Reader) Next() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(header[8:]) != maskedCRC(header[:8]) {
		return nil, fmt.Errorf("record %d length: %w", r.count, ErrCorrupt)
	}
	n := binary.LittleEndian.Uint64(header[:8])
	if n > maxRecordMB<<20 {
		return nil, fmt.Errorf("record %d: length %d exceeds limit", r.count, n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, unexpected(err)
	}
	var footer [footerSize]byte
	if _, err := io.ReadFull(r.r, footer[:]); err != nil {
		return nil, unexpected(err)
	}
	if binary.LittleEndian.Uint32(footer[:]) != maskedCRC(data) {
		return nil, fmt.Errorf("record %d data: %w", r.count, ErrCorrupt)
	}
	r.count++
	return data, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadAll reads every record from r.
func ReadAll(r io.Reader) ([][]byte, error) {
	tr := NewReader(r)
	var out [][]byte
	for {
		rec, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
