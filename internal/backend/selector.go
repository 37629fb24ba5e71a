package backend

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"go-photo-insight/internal/logger"
)

// AnalysisMode identifies one backend generation tier.
type AnalysisMode string

const (
	// ModeBaseOnly runs only the base inference backend.
	ModeBaseOnly AnalysisMode = "base_only"
	// ModeBasePlusSupplemental adds the supplemental classification model
	// on top of the base backend.
	ModeBasePlusSupplemental AnalysisMode = "base_plus_supplemental"
	// ModeUnified runs the newer unified analysis backend.
	ModeUnified AnalysisMode = "unified"
	// ModeUnifiedPlusSupplemental is the most capable tier.
	ModeUnifiedPlusSupplemental AnalysisMode = "unified_plus_supplemental"
)

// modeOrder is the fallback chain, least to most capable. Adding a future
// backend generation means appending a row here and to selectMode.
var modeOrder = []AnalysisMode{
	ModeBaseOnly,
	ModeBasePlusSupplemental,
	ModeUnified,
	ModeUnifiedPlusSupplemental,
}

// Rank returns the position of the mode in the capability ordering.
func (m AnalysisMode) Rank() int {
	for i, mode := range modeOrder {
		if mode == m {
			return i
		}
	}
	return -1
}

// ParseMode resolves a mode name, reporting whether it is known.
func ParseMode(s string) (AnalysisMode, bool) {
	for _, mode := range modeOrder {
		if string(mode) == s {
			return mode, true
		}
	}
	return "", false
}

// Capability is the system feature snapshot the selector decides from.
type Capability struct {
	// UnifiedBackendAvailable means the OS/runtime ships the newer unified
	// analysis backend.
	UnifiedBackendAvailable bool
	// SupplementalModelAvailable means the add-on classification model is
	// installed and loadable.
	SupplementalModelAvailable bool
	// NeuralAcceleratorAvailable and GPUAvailable drive compute-unit
	// preference in the model manager, not mode selection.
	NeuralAcceleratorAvailable bool
	GPUAvailable               bool
}

// CapabilityProbe inspects the running system. Injected so tests can pin
// capability combinations.
type CapabilityProbe func() Capability

// Selector chooses the active AnalysisMode. The decision is made once and
// cached; Refresh re-probes on an explicit capability-change signal.
type Selector struct {
	mu     sync.RWMutex
	probe  CapabilityProbe
	forced AnalysisMode
	mode   AnalysisMode
	probed bool
}

// NewSelector creates a selector around the given probe. forced, when
// non-empty, pins the mode for diagnostics, clamped to detected capability.
func NewSelector(probe CapabilityProbe, forced AnalysisMode) *Selector {
	return &Selector{probe: probe, forced: forced}
}

// CurrentMode returns the active mode, probing capability on first use.
func (s *Selector) CurrentMode() AnalysisMode {
	s.mu.RLock()
	if s.probed {
		mode := s.mode
		s.mu.RUnlock()
		return mode
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.probed {
		s.evaluate()
	}
	return s.mode
}

// Refresh re-evaluates capability. Called on explicit capability-change
// signals only, never per request.
func (s *Selector) Refresh() AnalysisMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluate()
	return s.mode
}

func (s *Selector) evaluate() {
	caps := s.probe()
	detected := selectMode(caps)

	mode := detected
	if s.forced != "" {
		// A forced mode beyond what the system supports is clamped down.
		if s.forced.Rank() <= detected.Rank() && s.forced.Rank() >= 0 {
			mode = s.forced
		}
		logger.WithFields(logrus.Fields{
			"forced":   s.forced,
			"detected": detected,
			"active":   mode,
		}).Warn("Backend mode forced")
	}

	s.mode = mode
	s.probed = true
	logger.WithFields(logrus.Fields{
		"mode":               mode,
		"unified_backend":    caps.UnifiedBackendAvailable,
		"supplemental_model": caps.SupplementalModelAvailable,
	}).Info("Backend mode selected")
}

// selectMode is the ordered selection policy, most to least capable. Every
// tier keeps the base classification analyzer so fusion always has input.
func selectMode(caps Capability) AnalysisMode {
	switch {
	case caps.UnifiedBackendAvailable && caps.SupplementalModelAvailable:
		return ModeUnifiedPlusSupplemental
	case caps.UnifiedBackendAvailable:
		return ModeUnified
	case caps.SupplementalModelAvailable:
		return ModeBasePlusSupplemental
	default:
		return ModeBaseOnly
	}
}

// DetectCapability is the production probe. On-device backend generations do
// not exist off the original platform, so detection is environment-driven
// with conservative defaults: the base backend always exists, the unified
// backend and supplemental model are opt-in.
func DetectCapability() Capability {
	return Capability{
		UnifiedBackendAvailable:    envFlag("UNIFIED_BACKEND_AVAILABLE", true),
		SupplementalModelAvailable: envFlag("SUPPLEMENTAL_MODEL_AVAILABLE", true),
		NeuralAcceleratorAvailable: envFlag("NEURAL_ACCELERATOR_AVAILABLE", false),
		GPUAvailable:               envFlag("GPU_AVAILABLE", false),
	}
}

func envFlag(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
