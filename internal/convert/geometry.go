// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

// SizeToCoords converts a box given by its center (x, y) and extent (w, h)
// into corner form.
func SizeToCoords(x, y, w, h float64) (xmin, xmax, ymin, ymax float64) {
	xmin = x - w/2
	xmax = x + w/2
	ymin = y - h/2
	ymax = y + h/2
	return xmin, xmax, ymin, ymax
}

// Normalize divides x coordinates by width and y coordinates by height.
func Normalize(xmin, xmax, ymin, ymax float64, width, height int64) (float64, float64, float64, float64) {
	w, h := float64(width), float64(height)
	return xmin / w, xmax / w, ymin / h, ymax / h
}
