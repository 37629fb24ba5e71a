package strategy

import (
	"go-photo-insight/internal/backend"
	"go-photo-insight/pkg/models"
)

// ModeStrategy maps one backend generation to the analyzer subset it
// dispatches. Adding a backend generation means adding a table row below,
// nothing else.
type ModeStrategy interface {
	Mode() backend.AnalysisMode
	AnalyzerKinds() []models.UnitKind
}

type modeStrategy struct {
	mode  backend.AnalysisMode
	kinds []models.UnitKind
}

func (s *modeStrategy) Mode() backend.AnalysisMode       { return s.mode }
func (s *modeStrategy) AnalyzerKinds() []models.UnitKind { return s.kinds }

// baseKinds is the floor every tier provides. Classification is always
// present: fusion depends on it.
var baseKinds = []models.UnitKind{
	models.UnitClassification,
	models.UnitObjectDetection,
	models.UnitScene,
	models.UnitText,
	models.UnitColor,
	models.UnitBarcode,
}

// unifiedKinds are the capabilities only the unified backend ships.
var unifiedKinds = []models.UnitKind{
	models.UnitSaliency,
	models.UnitLandmark,
	models.UnitHorizon,
}

var strategyTable = map[backend.AnalysisMode]*modeStrategy{
	backend.ModeBaseOnly: {
		mode:  backend.ModeBaseOnly,
		kinds: baseKinds,
	},
	backend.ModeBasePlusSupplemental: {
		mode:  backend.ModeBasePlusSupplemental,
		kinds: append(append([]models.UnitKind{}, baseKinds...), models.UnitSupplementalClassifier),
	},
	backend.ModeUnified: {
		mode:  backend.ModeUnified,
		kinds: append(append([]models.UnitKind{}, baseKinds...), unifiedKinds...),
	},
	backend.ModeUnifiedPlusSupplemental: {
		mode: backend.ModeUnifiedPlusSupplemental,
		kinds: append(append(append([]models.UnitKind{}, baseKinds...),
			models.UnitSupplementalClassifier), unifiedKinds...),
	},
}

// ForMode returns the strategy for the given backend mode. Unknown modes
// fall back to the base tier so the pipeline always dispatches something.
func ForMode(mode backend.AnalysisMode) ModeStrategy {
	if s, ok := strategyTable[mode]; ok {
		return s
	}
	return strategyTable[backend.ModeBaseOnly]
}
