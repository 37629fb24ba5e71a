package model

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"go-photo-insight/internal/backend"
	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/internal/logger"
)

// Type identifies one loadable model.
type Type string

const (
	TypeBaseClassifier         Type = "base_classifier"
	TypeSupplementalClassifier Type = "supplemental_classifier"
	TypeObjectDetector         Type = "object_detector"
	TypeSceneClassifier        Type = "scene_classifier"
	TypeLandmarkDetector       Type = "landmark_detector"
	TypeHorizonEstimator       Type = "horizon_estimator"
)

// ComputeUnit is the hardware tier a model is compiled for.
type ComputeUnit string

const (
	ComputeNeuralAccelerator ComputeUnit = "neural_accelerator"
	ComputeGPU               ComputeUnit = "gpu"
	ComputeCPU               ComputeUnit = "cpu"
)

// Model is a compiled, process-lifetime inference model. The label table is
// the model's vocabulary; analyzers index into it from pixel statistics.
type Model struct {
	Type        Type
	ComputeUnit ComputeUnit
	Labels      []string
}

// valid checks the model is structurally usable after load.
func (m *Model) valid() bool {
	return m != nil && m.Type != "" && len(m.Labels) > 0
}

// Loader produces the raw model for a type. Injected so tests can simulate
// load failures; the default loader compiles the built-in vocabularies.
type Loader func(t Type, unit ComputeUnit) (*Model, error)

// Manager loads and caches models for the process lifetime. Concurrent
// requests for the same not-yet-loaded model collapse into one underlying
// load. Failed loads are never cached, so the next call retries.
type Manager struct {
	mu     sync.RWMutex
	models map[Type]*Model
	group  singleflight.Group
	loader Loader
	unit   ComputeUnit
}

// NewManager creates a manager using the fastest compute unit the given
// capability snapshot offers.
func NewManager(caps backend.Capability, loader Loader) *Manager {
	if loader == nil {
		loader = builtinLoader
	}
	return &Manager{
		models: make(map[Type]*Model),
		loader: loader,
		unit:   preferredComputeUnit(caps),
	}
}

// preferredComputeUnit picks the fastest available tier, falling back
// silently: neural accelerator, then GPU, then CPU.
func preferredComputeUnit(caps backend.Capability) ComputeUnit {
	switch {
	case caps.NeuralAcceleratorAvailable:
		return ComputeNeuralAccelerator
	case caps.GPUAvailable:
		return ComputeGPU
	default:
		return ComputeCPU
	}
}

// ComputeUnit reports the tier models are compiled for.
func (m *Manager) ComputeUnit() ComputeUnit {
	return m.unit
}

// Load returns the cached model for t, loading it on first use.
func (m *Manager) Load(t Type) (*Model, error) {
	m.mu.RLock()
	if mdl, ok := m.models[t]; ok {
		m.mu.RUnlock()
		return mdl, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do(string(t), func() (interface{}, error) {
		// Another caller may have finished between the RLock and here.
		m.mu.RLock()
		if mdl, ok := m.models[t]; ok {
			m.mu.RUnlock()
			return mdl, nil
		}
		m.mu.RUnlock()

		mdl, err := m.loader(t, m.unit)
		if err != nil {
			return nil, apperrors.NewModelLoadingError(
				fmt.Sprintf("loading model %q", t), err)
		}
		if !mdl.valid() {
			return nil, apperrors.NewModelLoadingError(
				fmt.Sprintf("model %q failed structural validation", t), nil)
		}

		m.mu.Lock()
		m.models[t] = mdl
		m.mu.Unlock()

		logger.WithFields(logrus.Fields{
			"model":        t,
			"compute_unit": m.unit,
			"labels":       len(mdl.Labels),
		}).Info("Model loaded")
		return mdl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Loaded reports whether the model is already cached, without loading it.
func (m *Manager) Loaded(t Type) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.models[t]
	return ok
}

// builtinLoader compiles the embedded vocabularies. The two classification
// vocabularies intentionally overlap so cross-source fusion has agreement
// to work with.
func builtinLoader(t Type, unit ComputeUnit) (*Model, error) {
	labels, ok := builtinVocabularies[t]
	if !ok {
		return nil, fmt.Errorf("unknown model type %q", t)
	}
	return &Model{Type: t, ComputeUnit: unit, Labels: labels}, nil
}

var builtinVocabularies = map[Type][]string{
	TypeBaseClassifier: {
		"landscape", "portrait", "food", "animal", "building",
		"vehicle", "document", "nature", "night", "water",
		"sky", "plant", "people", "indoor", "outdoor",
	},
	TypeSupplementalClassifier: {
		"landscape", "portrait", "food", "animal", "architecture",
		"vehicle", "text document", "nature", "low light", "water",
		"sunset", "flower", "crowd", "interior", "street",
	},
	TypeObjectDetector: {
		"person", "face", "vehicle", "animal", "plant",
		"furniture", "screen", "sign",
	},
	TypeSceneClassifier: {
		"indoor", "outdoor", "landscape", "urban", "nature", "night",
	},
	TypeLandmarkDetector: {
		"monument", "bridge", "tower", "stadium", "cathedral",
	},
	TypeHorizonEstimator: {
		"horizon",
	},
}
