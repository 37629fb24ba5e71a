package analyzer

import (
	"context"
	"image"
	"time"

	"go-photo-insight/pkg/models"
)

// Analyzer is one independent unit of image-understanding work. Run returns
// a settled AnalysisUnit; the orchestrator handles timeouts and failures, so
// an implementation only fills its payload. Implementations are stateless
// with respect to a single request and safe for concurrent use.
type Analyzer interface {
	Kind() models.UnitKind
	// Timeout is the per-invocation deadline for this analyzer. Cheap
	// pixel-statistics analyzers carry shorter deadlines than model-backed
	// ones.
	Timeout() time.Duration
	Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error)
}

// ClassificationAnalyzer is an Analyzer whose unit carries a classification
// list consumable by fusion.
type ClassificationAnalyzer interface {
	Analyzer
	Source() models.ClassificationSource
}

// newUnit stamps a successful unit with its elapsed time.
func newUnit(kind models.UnitKind, started time.Time) models.AnalysisUnit {
	return models.AnalysisUnit{
		Kind:    kind,
		Status:  models.StatusSuccess,
		Elapsed: time.Since(started),
	}
}
