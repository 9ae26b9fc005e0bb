// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdm2tfrecord/internal/labelmap"
	"github.com/pdiddy/pdm2tfrecord/pkg/types"
)

// writeJPEG creates a width×height JPEG at dir/name and returns its path.
func writeJPEG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func boxImage(path string, boxes ...types.Box) types.Image {
	img := types.Image{Path: path, IsFullyCategorized: true}
	for i, b := range boxes {
		img.CategoryBoxes = append(img.CategoryBoxes, types.BoxEntry{Key: string(rune('a' + i)), Box: b})
	}
	return img
}

func TestSizeToCoords(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h float64
	}{
		{"person box", 50, 100, 20, 40},
		{"fractional", 0.5, 0.25, 0.1, 0.3},
		{"zero extent", 7, 9, 0, 0},
		{"negative center", -3.5, -10, 2, 8},
		{"large", 1e6, 2e6, 333.3, 777.7},
	}
	const tol = 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xmin, xmax, ymin, ymax := SizeToCoords(tt.x, tt.y, tt.w, tt.h)
			assert.InDelta(t, tt.w, xmax-xmin, tol)
			assert.InDelta(t, tt.h, ymax-ymin, tol)
			assert.InDelta(t, tt.x, (xmin+xmax)/2, tol)
			assert.InDelta(t, tt.y, (ymin+ymax)/2, tol)
		})
	}

	xmin, xmax, ymin, ymax := SizeToCoords(50, 100, 20, 40)
	assert.Equal(t, []float64{40, 60, 80, 120}, []float64{xmin, xmax, ymin, ymax})
}

func TestNormalize(t *testing.T) {
	xmin, xmax, ymin, ymax := Normalize(40, 60, 80, 120, 100, 200)
	assert.Equal(t, []float64{0.4, 0.6, 0.4, 0.6}, []float64{xmin, xmax, ymin, ymax})
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "a.jpg", 100, 200)

	b := NewBuilder(types.ConversionConfig{ImagesDir: dir}, labelmap.Default(), nil)
	rec, err := b.Build(boxImage("a.jpg", types.Box{X: 50, Y: 100, Width: 20, Height: 40, Category: "PERSON"}))
	require.NoError(t, err)

	assert.Equal(t, int64(100), rec.Width)
	assert.Equal(t, int64(200), rec.Height)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), string(rec.Filename))
	assert.Equal(t, rec.Filename, rec.SourceID)
	assert.Equal(t, "jpeg", rec.Format)
	assert.Equal(t, []float64{40}, rec.XMins)
	assert.Equal(t, []float64{60}, rec.XMaxs)
	assert.Equal(t, []float64{80}, rec.YMins)
	assert.Equal(t, []float64{120}, rec.YMaxs)
	assert.Equal(t, []string{"person"}, rec.ClassesText)
	assert.Equal(t, []int64{1}, rec.Classes)

	raw, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, rec.Encoded), "encoded bytes must be the file verbatim")
}

func TestBuild_ParallelSequences(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "sub/b.jpg", 64, 48)

	boxes := []types.Box{
		{X: 10, Y: 10, Width: 4, Height: 4, Category: "MOVING_CAR"},
		{X: 20, Y: 30, Width: 6, Height: 2, Category: "PERSON"},
		{X: 5, Y: 5, Width: 1, Height: 1, Category: "STATIONARY_CAR"},
	}
	b := NewBuilder(types.ConversionConfig{ImagesDir: dir}, labelmap.Default(), nil)
	rec, err := b.Build(boxImage("sub/b.jpg", boxes...))
	require.NoError(t, err)

	n := len(boxes)
	for _, l := range []int{len(rec.XMins), len(rec.XMaxs), len(rec.YMins), len(rec.YMaxs), len(rec.ClassesText), len(rec.Classes)} {
		assert.Equal(t, n, l)
	}
	assert.Equal(t, []string{"car", "person", "car"}, rec.ClassesText)
	assert.Equal(t, []int64{3, 1, 3}, rec.Classes)
	assert.Equal(t, 23.0, rec.XMaxs[1])
	assert.Equal(t, 4.5, rec.XMins[2])
}

func TestBuild_NoBoxes(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "empty.jpg", 8, 8)

	rec, err := NewBuilder(types.ConversionConfig{ImagesDir: dir}, labelmap.Default(), nil).
		Build(types.Image{Path: "empty.jpg", IsFullyCategorized: true})
	require.NoError(t, err)
	assert.Zero(t, rec.NumBoxes())
	assert.NotNil(t, rec.XMins)
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "ok.jpg", 10, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("not an image"), 0o644))

	b := NewBuilder(types.ConversionConfig{ImagesDir: dir}, labelmap.Default(), nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := b.Build(boxImage("nope.jpg"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("corrupt file", func(t *testing.T) {
		_, err := b.Build(boxImage("bad.jpg"))
		assert.ErrorContains(t, err, "decoding image")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := b.Build(boxImage("ok.jpg",
			types.Box{X: 1, Y: 1, Width: 1, Height: 1, Category: "PERSON"},
			types.Box{X: 1, Y: 1, Width: 1, Height: 1, Category: "DOG"},
		))
		var uce *labelmap.UnknownCategoryError
		require.True(t, errors.As(err, &uce), "got %v", err)
		assert.Equal(t, "DOG", uce.Category)
	})
}

func TestBuild_Normalize(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "a.jpg", 100, 200)

	cfg := types.ConversionConfig{ImagesDir: dir, Normalize: true}
	rec, err := NewBuilder(cfg, labelmap.Default(), nil).
		Build(boxImage("a.jpg", types.Box{X: 50, Y: 100, Width: 20, Height: 40, Category: "PERSON"}))
	require.NoError(t, err)

	assert.InDelta(t, 0.4, rec.XMins[0], 1e-12)
	assert.InDelta(t, 0.6, rec.XMaxs[0], 1e-12)
	assert.InDelta(t, 0.4, rec.YMins[0], 1e-12)
	assert.InDelta(t, 0.6, rec.YMaxs[0], 1e-12)
}

func TestBuild_Downscale(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, dir, "wide.jpg", 400, 200)

	cfg := types.ConversionConfig{ImagesDir: dir, MaxSide: 100}
	rec, err := NewBuilder(cfg, labelmap.Default(), nil).
		Build(boxImage("wide.jpg", types.Box{X: 200, Y: 100, Width: 40, Height: 20, Category: "MOVING_CAR"}))
	require.NoError(t, err)

	assert.Equal(t, int64(100), rec.Width)
	assert.Equal(t, int64(50), rec.Height)
	assert.InDelta(t, 45, rec.XMins[0], 1e-9)
	assert.InDelta(t, 55, rec.XMaxs[0], 1e-9)
	assert.InDelta(t, 22.5, rec.YMins[0], 1e-9)
	assert.InDelta(t, 27.5, rec.YMaxs[0], 1e-9)

	cfgImg, format, err := image.DecodeConfig(bytes.NewReader(rec.Encoded))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfgImg.Width)
}

func TestBuild_DownscaleSkipsSmallImages(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "small.jpg", 50, 40)

	cfg := types.ConversionConfig{ImagesDir: dir, MaxSide: 100}
	rec, err := NewBuilder(cfg, labelmap.Default(), nil).Build(boxImage("small.jpg"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, rec.Encoded))
}

func TestBuild_NonJPEGWarns(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 7))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.png"), buf.Bytes(), 0o644))

	var log bytes.Buffer
	rec, err := NewBuilder(types.ConversionConfig{ImagesDir: dir}, labelmap.Default(), &log).Build(boxImage("p.png"))
	require.NoError(t, err)

	assert.Equal(t, "jpeg", rec.Format)
	assert.Equal(t, int64(12), rec.Width)
	assert.Equal(t, int64(7), rec.Height)
	assert.Contains(t, log.String(), "warning:")
	assert.Contains(t, log.String(), "is png")
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "r.jpg", 33, 21)

	d, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 33, d.Width)
	assert.Equal(t, 21, d.Height)
	assert.Equal(t, "jpeg", d.Format)
	assert.Equal(t, 33, d.LongSide())
	assert.NotEmpty(t, d.Bytes)
}

func TestImagePath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		name string
		dir  string
		path string
		want string
	}{
		{"relative", sep + "data", "a.jpg", sep + "data" + sep + "a.jpg"},
		{"dir with trailing separator", sep + "data" + sep, "a.jpg", sep + "data" + sep + "a.jpg"},
		{"absolute path kept", sep + "data", sep + "elsewhere" + sep + "a.jpg", sep + "elsewhere" + sep + "a.jpg"},
		{"dot segments kept", sep + "data", ".." + sep + "b" + sep + "a.jpg", sep + "data" + sep + ".." + sep + "b" + sep + "a.jpg"},
		{"empty dir", "", "a.jpg", "a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, imagePath(tt.dir, tt.path))
		})
	}
}

func TestBuild_AbsoluteImagePath(t *testing.T) {
	imagesDir := t.TempDir()
	elsewhere := writeJPEG(t, t.TempDir(), "a.jpg", 30, 20)

	rec, err := NewBuilder(types.ConversionConfig{ImagesDir: imagesDir}, labelmap.Default(), nil).Build(boxImage(elsewhere))
	require.NoError(t, err)
	assert.Equal(t, elsewhere, string(rec.Filename))
	assert.Equal(t, int64(30), rec.Width)
}
