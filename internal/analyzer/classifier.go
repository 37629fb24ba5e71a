package analyzer

import (
	"context"
	"hash/fnv"
	"image"
	"math"
	"sort"
	"time"

	"go-photo-insight/internal/model"
	"go-photo-insight/pkg/models"
)

// classifier scores the model vocabulary against global image features. The
// base and supplemental instances differ in vocabulary and feature weighting,
// so they rank labels differently for the same pixels, which is exactly the
// disagreement fusion exists to reconcile.
type classifier struct {
	kind    models.UnitKind
	source  models.ClassificationSource
	modelT  model.Type
	mgr     *model.Manager
	timeout time.Duration
	topK    int
	// featureBias skews the feature vector so the two sources do not
	// collapse into the same ranking.
	featureBias float64
}

// NewBaseClassifier creates the base-backend classification analyzer.
func NewBaseClassifier(mgr *model.Manager, timeout time.Duration) ClassificationAnalyzer {
	return &classifier{
		kind:        models.UnitClassification,
		source:      models.SourceBaseClassifier,
		modelT:      model.TypeBaseClassifier,
		mgr:         mgr,
		timeout:     timeout,
		topK:        10,
		featureBias: 1.0,
	}
}

// NewSupplementalClassifier creates the supplemental-model classification
// analyzer.
func NewSupplementalClassifier(mgr *model.Manager, timeout time.Duration) ClassificationAnalyzer {
	return &classifier{
		kind:        models.UnitSupplementalClassifier,
		source:      models.SourceSupplementalClassifier,
		modelT:      model.TypeSupplementalClassifier,
		mgr:         mgr,
		timeout:     timeout,
		topK:        10,
		featureBias: 0.7,
	}
}

func (c *classifier) Kind() models.UnitKind               { return c.kind }
func (c *classifier) Timeout() time.Duration              { return c.timeout }
func (c *classifier) Source() models.ClassificationSource { return c.source }

func (c *classifier) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	mdl, err := c.mgr.Load(c.modelT)
	if err != nil {
		return models.AnalysisUnit{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisUnit{}, err
	}

	stats := computePixelStats(img)
	gray := toGray(img)
	sharpness := laplacianVariance(gray)

	// Feature vector in [0,1]: luminance, saturation, hue, sharpness.
	features := [4]float64{
		stats.avgLuminance * c.featureBias,
		stats.avgSaturation,
		stats.avgHue / 360.0,
		math.Min(sharpness/1000.0, 1.0) * c.featureBias,
	}

	results := make([]models.ClassificationResult, 0, len(mdl.Labels))
	for _, label := range mdl.Labels {
		if err := ctx.Err(); err != nil {
			return models.AnalysisUnit{}, err
		}
		results = append(results, models.ClassificationResult{
			Label:      label,
			Confidence: scoreLabel(label, features),
			Source:     c.source,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	if len(results) > c.topK {
		results = results[:c.topK]
	}

	unit := newUnit(c.kind, started)
	unit.Classifications = results
	return unit, nil
}

// scoreLabel computes a deterministic confidence from the dot product of the
// feature vector with per-label weights derived from the label itself. The
// weights stand in for the compiled model's parameters: stable across runs,
// different per label.
func scoreLabel(label string, features [4]float64) float64 {
	var dot float64
	for i, f := range features {
		dot += f * labelWeight(label, i)
	}
	// Squash into (0,1).
	conf := 1.0 / (1.0 + math.Exp(-3*dot))
	return math.Round(conf*10000) / 10000
}

// labelWeight maps (label, feature index) to a stable weight in [-1, 1].
func labelWeight(label string, i int) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	_, _ = h.Write([]byte{byte(i)})
	return float64(h.Sum64()%2000)/1000.0 - 1.0
}
