package analyzer

import (
	"context"
	"image"
	"sort"
	"time"

	"go-photo-insight/internal/model"
	"go-photo-insight/pkg/models"
)

// sceneClassifier derives the overall scene category from global color
// statistics rather than localized features.
type sceneClassifier struct {
	mgr     *model.Manager
	timeout time.Duration
}

// NewSceneClassifier creates the scene-classification analyzer.
func NewSceneClassifier(mgr *model.Manager, timeout time.Duration) Analyzer {
	return &sceneClassifier{mgr: mgr, timeout: timeout}
}

func (s *sceneClassifier) Kind() models.UnitKind  { return models.UnitScene }
func (s *sceneClassifier) Timeout() time.Duration { return s.timeout }

func (s *sceneClassifier) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	mdl, err := s.mgr.Load(model.TypeSceneClassifier)
	if err != nil {
		return models.AnalysisUnit{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisUnit{}, err
	}

	stats := computePixelStats(img)
	features := [4]float64{
		stats.avgLuminance,
		stats.avgSaturation,
		stats.avgHue / 360.0,
		(stats.avgB + stats.avgG) / 2, // sky/vegetation weight
	}

	labels := make([]models.ClassificationResult, 0, len(mdl.Labels))
	for _, label := range mdl.Labels {
		labels = append(labels, models.ClassificationResult{
			Label:      label,
			Confidence: scoreLabel(label, features),
			Source:     models.SourceBaseClassifier,
		})
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
	if len(labels) > 3 {
		labels = labels[:3]
	}

	unit := newUnit(models.UnitScene, started)
	unit.Scene = &models.SceneResult{Labels: labels}
	return unit, nil
}
