package analyzer

import (
	"context"
	"image"
	"math"
	"time"

	"go-photo-insight/internal/model"
	"go-photo-insight/pkg/models"
)

// objectDetector localizes high-contrast regions on a coarse grid and labels
// them from the detector model's vocabulary.
type objectDetector struct {
	mgr     *model.Manager
	timeout time.Duration
}

// NewObjectDetector creates the object-detection analyzer.
func NewObjectDetector(mgr *model.Manager, timeout time.Duration) Analyzer {
	return &objectDetector{mgr: mgr, timeout: timeout}
}

func (d *objectDetector) Kind() models.UnitKind  { return models.UnitObjectDetection }
func (d *objectDetector) Timeout() time.Duration { return d.timeout }

const objectGrid = 4

func (d *objectDetector) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	mdl, err := d.mgr.Load(model.TypeObjectDetector)
	if err != nil {
		return models.AnalysisUnit{}, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < objectGrid || height < objectGrid {
		unit := newUnit(models.UnitObjectDetection, started)
		return unit, nil
	}

	gray := toGray(img)
	globalMean := regionMeanGray(gray, bounds)

	cellW := width / objectGrid
	cellH := height / objectGrid

	var objects []models.DetectedObject
	for gy := 0; gy < objectGrid; gy++ {
		for gx := 0; gx < objectGrid; gx++ {
			if err := ctx.Err(); err != nil {
				return models.AnalysisUnit{}, err
			}

			cell := image.Rect(
				bounds.Min.X+gx*cellW,
				bounds.Min.Y+gy*cellH,
				bounds.Min.X+(gx+1)*cellW,
				bounds.Min.Y+(gy+1)*cellH,
			)
			mean := regionMeanGray(gray, cell)
			contrast := math.Abs(mean-globalMean) / 255.0

			// Cells that barely deviate from the global mean hold no object.
			if contrast < 0.12 {
				continue
			}

			label := mdl.Labels[(gy*objectGrid+gx)%len(mdl.Labels)]
			conf := math.Min(0.4+contrast, 0.99)
			objects = append(objects, models.DetectedObject{
				Label:      label,
				Confidence: math.Round(conf*10000) / 10000,
				Box: models.BoundingBox{
					X:      float64(gx) / objectGrid,
					Y:      float64(gy) / objectGrid,
					Width:  1.0 / objectGrid,
					Height: 1.0 / objectGrid,
				},
			})
		}
	}

	unit := newUnit(models.UnitObjectDetection, started)
	unit.Objects = objects
	return unit, nil
}
