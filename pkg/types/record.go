// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ImageFormatJPEG is the format tag written for every record.
const ImageFormatJPEG = "jpeg"

// Record is the output unit for one fully-categorized image. The six per-box
// slices are parallel: index i refers to the same box in each of them.
type Record struct {
	Height int64
	Width  int64

	// Filename is the absolute image path. SourceID carries the same bytes.
	Filename []byte
	SourceID []byte

	// Encoded holds the image file bytes (or the re-encoded JPEG when
	// the image was downscaled).
	Encoded []byte
	Format  string

	XMins []float64
	XMaxs []float64
	YMins []float64
	YMaxs []float64

	ClassesText []string
	Classes     []int64
}

// NumBoxes returns the number of boxes in the record.
func (r *Record) NumBoxes() int {
	return len(r.Classes)
}

// AppendBox adds one box to all six parallel slices.
func (r *Record) AppendBox(xmin, xmax, ymin, ymax float64, text string, class int64) {
	r.XMins = append(r.XMins, xmin)
	r.XMaxs = append(r.XMaxs, xmax)
	r.YMins = append(r.YMins, ymin)
	r.YMaxs = append(r.YMaxs, ymax)
	r.ClassesText = append(r.ClassesText, text)
	r.Classes = append(r.Classes, class)
}
