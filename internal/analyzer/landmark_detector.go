package analyzer

import (
	"context"
	"image"
	"math"
	"time"

	"go-photo-insight/internal/model"
	"go-photo-insight/pkg/models"
)

// landmarkDetector flags prominent built structures. The heuristic: a dense
// column of strong vertical edges in the upper image half reads as a tower,
// bridge or monument silhouette; the landmark model's vocabulary names it.
type landmarkDetector struct {
	mgr     *model.Manager
	timeout time.Duration
}

// NewLandmarkDetector creates the landmark-detection analyzer. Only the
// unified backend generations dispatch it.
func NewLandmarkDetector(mgr *model.Manager, timeout time.Duration) Analyzer {
	return &landmarkDetector{mgr: mgr, timeout: timeout}
}

func (d *landmarkDetector) Kind() models.UnitKind  { return models.UnitLandmark }
func (d *landmarkDetector) Timeout() time.Duration { return d.timeout }

func (d *landmarkDetector) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	mdl, err := d.mgr.Load(model.TypeLandmarkDetector)
	if err != nil {
		return models.AnalysisUnit{}, err
	}

	gray := toGray(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 8 || height < 8 {
		return newUnit(models.UnitLandmark, started), nil
	}

	// Vertical-edge density per column, upper half only.
	columns := 8
	colW := width / columns
	upperHalf := height / 2

	bestDensity := 0.0
	bestCol := -1
	for c := 0; c < columns; c++ {
		if err := ctx.Err(); err != nil {
			return models.AnalysisUnit{}, err
		}
		edges := 0
		total := 0
		for y := 1; y < upperHalf; y++ {
			for x := bounds.Min.X + c*colW + 1; x < bounds.Min.X+(c+1)*colW-1 && x < bounds.Max.X-1; x++ {
				gx := sobelX(gray, x, y)
				gy := sobelY(gray, x, y)
				if abs(gx) > 80 && abs(gx) > 2*abs(gy) {
					edges++
				}
				total++
			}
		}
		if total == 0 {
			continue
		}
		density := float64(edges) / float64(total)
		if density > bestDensity {
			bestDensity = density
			bestCol = c
		}
	}

	unit := newUnit(models.UnitLandmark, started)
	if bestCol < 0 || bestDensity < 0.08 {
		return unit, nil
	}

	label := mdl.Labels[bestCol%len(mdl.Labels)]
	unit.Landmarks = []models.Landmark{{
		Name:       label,
		Confidence: math.Round(math.Min(0.5+bestDensity*2, 0.95)*10000) / 10000,
		Box: models.BoundingBox{
			X:      float64(bestCol) / float64(columns),
			Y:      0,
			Width:  1.0 / float64(columns),
			Height: 0.5,
		},
	}}
	return unit, nil
}
