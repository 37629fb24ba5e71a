package validation

import (
	"fmt"
	"image"
)

const (
	// maxDimension guards against pathological inputs that would make the
	// pixel-walking analyzers crawl.
	maxDimension = 16384
)

// ValidateImage rejects nil, zero-size, or absurdly large images before any
// analyzer work is scheduled.
func ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image has zero size (%dx%d)", width, height)
	}
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("image too large (%dx%d, limit %d)", width, height, maxDimension)
	}
	return nil
}
