package analyzer

import (
	"context"
	"image"
	"sort"
	"time"

	"go-photo-insight/pkg/models"
)

// colorAnalyzer profiles dominant colors and global color statistics. Pure
// pixel work, no model load.
type colorAnalyzer struct {
	timeout time.Duration
}

// NewColorAnalyzer creates the color-profiling analyzer.
func NewColorAnalyzer(timeout time.Duration) Analyzer {
	return &colorAnalyzer{timeout: timeout}
}

func (a *colorAnalyzer) Kind() models.UnitKind  { return models.UnitColor }
func (a *colorAnalyzer) Timeout() time.Duration { return a.timeout }

// hueBuckets maps coarse hue ranges to color names. Neutral pixels (low
// saturation or extreme luminance) are bucketed separately.
var hueBuckets = []struct {
	upTo float64
	name string
}{
	{30, "red"},
	{90, "yellow"},
	{150, "green"},
	{210, "cyan"},
	{270, "blue"},
	{330, "magenta"},
	{360, "red"},
}

func (a *colorAnalyzer) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	bounds := img.Bounds()
	counts := make(map[string]int)
	var lumSum, satSum, rSum, gSum, bSum float64
	pixels := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return models.AnalysisUnit{}, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rv, gv, bv, _ := img.At(x, y).RGBA()
			rf := float64(rv) / 65535.0
			gf := float64(gv) / 65535.0
			bf := float64(bv) / 65535.0

			h, s, v := rgbToHSV(rf, gf, bf)
			lumSum += v
			satSum += s
			rSum += rf
			gSum += gf
			bSum += bf
			pixels++

			switch {
			case v < 0.15:
				counts["black"]++
			case s < 0.12 && v > 0.85:
				counts["white"]++
			case s < 0.12:
				counts["gray"]++
			default:
				for _, bucket := range hueBuckets {
					if h < bucket.upTo {
						counts[bucket.name]++
						break
					}
				}
			}
		}
	}

	if pixels == 0 {
		unit := newUnit(models.UnitColor, started)
		unit.Color = &models.ColorProfile{}
		return unit, nil
	}

	type colorCount struct {
		name  string
		count int
	}
	ranked := make([]colorCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, colorCount{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})

	dominant := make([]string, 0, 3)
	for i, c := range ranked {
		if i == 3 || c.count*10 < pixels {
			break
		}
		dominant = append(dominant, c.name)
	}

	n := float64(pixels)
	avgSat := satSum / n
	unit := newUnit(models.UnitColor, started)
	unit.Color = &models.ColorProfile{
		DominantColors: dominant,
		AvgLuminance:   lumSum / n,
		AvgSaturation:  avgSat,
		ChannelBalance: [3]float64{rSum / n, gSum / n, bSum / n},
		Monochrome:     avgSat < 0.05,
	}
	return unit, nil
}
