package analyzer

import (
	"context"
	"image"
	"math"
	"time"

	"go-photo-insight/pkg/models"
)

// saliencyDetector finds the most visually prominent region by scoring
// center-surround contrast on a sliding grid.
type saliencyDetector struct {
	timeout time.Duration
}

// NewSaliencyDetector creates the saliency analyzer.
func NewSaliencyDetector(timeout time.Duration) Analyzer {
	return &saliencyDetector{timeout: timeout}
}

func (d *saliencyDetector) Kind() models.UnitKind  { return models.UnitSaliency }
func (d *saliencyDetector) Timeout() time.Duration { return d.timeout }

const saliencyGrid = 6

func (d *saliencyDetector) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < saliencyGrid || height < saliencyGrid {
		unit := newUnit(models.UnitSaliency, started)
		unit.Saliency = &models.SaliencyResult{
			AttentionBox: models.BoundingBox{Width: 1, Height: 1},
		}
		return unit, nil
	}

	gray := toGray(img)
	globalMean := regionMeanGray(gray, bounds)

	cellW := width / saliencyGrid
	cellH := height / saliencyGrid

	bestScore := -1.0
	var bestX, bestY int
	for gy := 0; gy < saliencyGrid; gy++ {
		if err := ctx.Err(); err != nil {
			return models.AnalysisUnit{}, err
		}
		for gx := 0; gx < saliencyGrid; gx++ {
			cell := image.Rect(
				bounds.Min.X+gx*cellW,
				bounds.Min.Y+gy*cellH,
				bounds.Min.X+(gx+1)*cellW,
				bounds.Min.Y+(gy+1)*cellH,
			)
			contrast := math.Abs(regionMeanGray(gray, cell)-globalMean) / 255.0

			// Mild center prior: attention gravitates toward the middle.
			cx := (float64(gx) + 0.5) / saliencyGrid
			cy := (float64(gy) + 0.5) / saliencyGrid
			centerDist := math.Hypot(cx-0.5, cy-0.5)
			score := contrast * (1.0 - 0.5*centerDist)

			if score > bestScore {
				bestScore = score
				bestX, bestY = gx, gy
			}
		}
	}

	unit := newUnit(models.UnitSaliency, started)
	unit.Saliency = &models.SaliencyResult{
		AttentionBox: models.BoundingBox{
			X:      float64(bestX) / saliencyGrid,
			Y:      float64(bestY) / saliencyGrid,
			Width:  1.0 / saliencyGrid,
			Height: 1.0 / saliencyGrid,
		},
		Score: math.Round(bestScore*10000) / 10000,
	}
	return unit, nil
}
