package model

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go-photo-insight/internal/backend"
	apperrors "go-photo-insight/internal/errors"
)

func TestManager_LoadCachesModel(t *testing.T) {
	loads := 0
	mgr := NewManager(backend.Capability{}, func(tp Type, unit ComputeUnit) (*Model, error) {
		loads++
		return &Model{Type: tp, ComputeUnit: unit, Labels: []string{"a"}}, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := mgr.Load(TypeBaseClassifier); err != nil {
			t.Fatalf("Unexpected load error: %v", err)
		}
	}

	if loads != 1 {
		t.Errorf("Expected 1 underlying load, got %d", loads)
	}
	if !mgr.Loaded(TypeBaseClassifier) {
		t.Error("Expected model reported as loaded")
	}
}

func TestManager_ConcurrentLoadsCollapse(t *testing.T) {
	var loads int32
	release := make(chan struct{})
	mgr := NewManager(backend.Capability{}, func(tp Type, unit ComputeUnit) (*Model, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &Model{Type: tp, ComputeUnit: unit, Labels: []string{"a"}}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mgr.Load(TypeSceneClassifier); err != nil {
				t.Errorf("Unexpected load error: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Errorf("Expected concurrent loads collapsed into 1, got %d", got)
	}
}

func TestManager_FailedLoadNotCached(t *testing.T) {
	attempts := 0
	mgr := NewManager(backend.Capability{}, func(tp Type, unit ComputeUnit) (*Model, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient io failure")
		}
		return &Model{Type: tp, ComputeUnit: unit, Labels: []string{"a"}}, nil
	})

	_, err := mgr.Load(TypeObjectDetector)
	if err == nil {
		t.Fatal("Expected first load to fail")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeModelLoading) {
		t.Errorf("Expected model loading error, got %v", err)
	}
	if mgr.Loaded(TypeObjectDetector) {
		t.Error("Failed load must not be cached")
	}

	if _, err := mgr.Load(TypeObjectDetector); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 loader attempts, got %d", attempts)
	}
}

func TestManager_RejectsStructurallyInvalidModel(t *testing.T) {
	mgr := NewManager(backend.Capability{}, func(tp Type, unit ComputeUnit) (*Model, error) {
		return &Model{Type: tp, ComputeUnit: unit}, nil // no labels
	})

	if _, err := mgr.Load(TypeBaseClassifier); err == nil {
		t.Fatal("Expected validation failure for model without labels")
	}
	if mgr.Loaded(TypeBaseClassifier) {
		t.Error("Invalid model must not be cached")
	}
}

func TestPreferredComputeUnit(t *testing.T) {
	tests := []struct {
		name string
		caps backend.Capability
		want ComputeUnit
	}{
		{"cpu fallback", backend.Capability{}, ComputeCPU},
		{"gpu preferred over cpu", backend.Capability{GPUAvailable: true}, ComputeGPU},
		{
			"neural accelerator preferred over gpu",
			backend.Capability{NeuralAcceleratorAvailable: true, GPUAvailable: true},
			ComputeNeuralAccelerator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := NewManager(tt.caps, nil)
			if got := mgr.ComputeUnit(); got != tt.want {
				t.Errorf("Expected compute unit %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBuiltinLoader_AllTypes(t *testing.T) {
	for _, tp := range []Type{
		TypeBaseClassifier, TypeSupplementalClassifier, TypeObjectDetector,
		TypeSceneClassifier, TypeLandmarkDetector, TypeHorizonEstimator,
	} {
		mdl, err := builtinLoader(tp, ComputeCPU)
		if err != nil {
			t.Errorf("Expected builtin vocabulary for %s, got error: %v", tp, err)
			continue
		}
		if !mdl.valid() {
			t.Errorf("Builtin model %s failed validation", tp)
		}
	}

	if _, err := builtinLoader(Type("unknown"), ComputeCPU); err == nil {
		t.Error("Expected error for unknown model type")
	}
}

func TestBuiltinVocabularies_ClassifiersOverlap(t *testing.T) {
	base := make(map[string]bool)
	for _, label := range builtinVocabularies[TypeBaseClassifier] {
		base[label] = true
	}

	overlap := 0
	for _, label := range builtinVocabularies[TypeSupplementalClassifier] {
		if base[label] {
			overlap++
		}
	}

	if overlap == 0 {
		t.Error("Classifier vocabularies share no labels; fusion agreement would be impossible")
	}
}
