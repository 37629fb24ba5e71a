package analyzer

import (
	"context"
	"image"
	"time"

	"go-photo-insight/pkg/models"
)

// horizonDetector estimates the horizon line by collecting strong horizontal
// edges and fitting a line through them.
type horizonDetector struct {
	timeout time.Duration
}

// NewHorizonDetector creates the horizon-estimation analyzer.
func NewHorizonDetector(timeout time.Duration) Analyzer {
	return &horizonDetector{timeout: timeout}
}

func (d *horizonDetector) Kind() models.UnitKind  { return models.UnitHorizon }
func (d *horizonDetector) Timeout() time.Duration { return d.timeout }

func (d *horizonDetector) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	gray := toGray(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		unit := newUnit(models.UnitHorizon, started)
		return unit, nil
	}

	// Horizontal edges dominate at the horizon: strong vertical gradient,
	// weak horizontal gradient. Coordinates are normalized back to a zero
	// origin so the fit is independent of the source bounds.
	minX, minY := bounds.Min.X, bounds.Min.Y
	var xCoords, yCoords []float64
	for y := minY + 1; y < minY+height-1; y++ {
		if err := ctx.Err(); err != nil {
			return models.AnalysisUnit{}, err
		}
		for x := minX + 1; x < minX+width-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if abs(gy) > 80 && abs(gy) > 2*abs(gx) {
				xCoords = append(xCoords, float64(x-minX))
				yCoords = append(yCoords, float64(y-minY))
			}
		}
	}

	unit := newUnit(models.UnitHorizon, started)
	if len(xCoords) < 10 {
		// Not enough evidence of a horizon; report a settled unit without
		// an estimate rather than a failure.
		return unit, nil
	}

	var ySum float64
	for _, y := range yCoords {
		ySum += y
	}

	unit.Horizon = &models.HorizonResult{
		AngleDegrees: fitLineAngle(xCoords, yCoords),
		YOffset:      ySum / float64(len(yCoords)) / float64(height),
	}
	return unit, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
