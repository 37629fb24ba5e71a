package analyzer

import (
	"context"
	"image"
	"time"

	"go-photo-insight/pkg/models"
)

// barcodeDetector looks for machine-readable codes. QR detection samples for
// the concentric finder patterns QR codes carry in their corners.
type barcodeDetector struct {
	timeout time.Duration
}

// NewBarcodeDetector creates the barcode-detection analyzer.
func NewBarcodeDetector(timeout time.Duration) Analyzer {
	return &barcodeDetector{timeout: timeout}
}

func (d *barcodeDetector) Kind() models.UnitKind  { return models.UnitBarcode }
func (d *barcodeDetector) Timeout() time.Duration { return d.timeout }

func (d *barcodeDetector) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	gray := toGray(img)
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var barcodes []models.Barcode
	if found, box := d.findQRPattern(ctx, gray, width, height); found {
		barcodes = append(barcodes, models.Barcode{Symbology: "qr", Box: box})
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisUnit{}, err
	}

	unit := newUnit(models.UnitBarcode, started)
	unit.Barcodes = barcodes
	return unit, nil
}

// findQRPattern checks candidate positions for QR finder patterns and, when
// at least two match, returns a box covering the matched region.
func (d *barcodeDetector) findQRPattern(ctx context.Context, gray *image.Gray, width, height int) (bool, models.BoundingBox) {
	minSize := 7
	maxSize := min(width, height) / 3
	if maxSize < minSize {
		return false, models.BoundingBox{}
	}

	positions := [][2]int{
		{width / 4, height / 4},
		{3 * width / 4, height / 4},
		{width / 4, 3 * height / 4},
		{width / 2, height / 2},
	}

	patternCount := 0
	for _, pos := range positions {
		if ctx.Err() != nil {
			return false, models.BoundingBox{}
		}
		if d.checkFinderPattern(gray, pos[0], pos[1], minSize, maxSize) {
			patternCount++
		}
	}

	// QR codes carry at least three finder patterns; two matches is a
	// confident enough detection on sampled positions.
	if patternCount < 2 {
		return false, models.BoundingBox{}
	}
	return true, models.BoundingBox{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
}

// checkFinderPattern probes for a finder pattern at a range of sizes.
func (d *barcodeDetector) checkFinderPattern(gray *image.Gray, startX, startY, minSize, maxSize int) bool {
	for size := minSize; size <= maxSize; size += 2 {
		if d.isFinderPattern(gray, startX, startY, size/2) {
			return true
		}
	}
	return false
}

// isFinderPattern checks whether the area around a point matches the
// black-white-black-white ring structure of a QR finder pattern.
func (d *barcodeDetector) isFinderPattern(gray *image.Gray, centerX, centerY, radius int) bool {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if centerX-radius < 0 || centerX+radius >= width ||
		centerY-radius < 0 || centerY+radius >= height {
		return false
	}

	samples := []int{radius / 4, radius / 2, 3 * radius / 4, radius}
	expectedPattern := []bool{true, false, true, false} // black, white, black, white

	directions := [][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}
	matchingDirections := 0

	for _, dir := range directions {
		matches := 0
		for i, sample := range samples {
			x := centerX + sample*dir[0]
			y := centerY + sample*dir[1]

			if x >= 0 && x < width && y >= 0 && y < height {
				isBlack := gray.GrayAt(x, y).Y < 128
				if isBlack == expectedPattern[i] {
					matches++
				}
			}
		}
		if matches >= len(samples)-1 {
			matchingDirections++
		}
	}

	return matchingDirections >= 2
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
