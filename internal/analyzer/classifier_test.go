package analyzer

import (
	"context"
	"image/color"
	"reflect"
	"testing"
	"time"

	"go-photo-insight/internal/backend"
	"go-photo-insight/internal/model"
	"go-photo-insight/pkg/models"
)

func newTestManager() *model.Manager {
	return model.NewManager(backend.Capability{}, nil)
}

func TestBaseClassifier_ProducesRankedResults(t *testing.T) {
	c := NewBaseClassifier(newTestManager(), time.Second)
	img := splitImage(32, 32, color.RGBA{R: 80, G: 140, B: 220, A: 255}, color.RGBA{R: 40, G: 90, B: 30, A: 255})

	unit, err := c.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Kind != models.UnitClassification || unit.Status != models.StatusSuccess {
		t.Fatalf("Unexpected unit header: %+v", unit)
	}
	if len(unit.Classifications) == 0 || len(unit.Classifications) > 10 {
		t.Fatalf("Expected 1..10 classifications, got %d", len(unit.Classifications))
	}
	for i, r := range unit.Classifications {
		if r.Source != models.SourceBaseClassifier {
			t.Errorf("Expected base source on %q, got %s", r.Label, r.Source)
		}
		if r.Confidence <= 0 || r.Confidence >= 1 {
			t.Errorf("Confidence for %q out of (0,1): %f", r.Label, r.Confidence)
		}
		if i > 0 && r.Confidence > unit.Classifications[i-1].Confidence {
			t.Errorf("Classifications not sorted at index %d", i)
		}
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewBaseClassifier(newTestManager(), time.Second)
	img := uniformImage(32, 32, color.RGBA{R: 200, G: 120, B: 60, A: 255})

	first, err := c.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := c.Run(context.Background(), img)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first.Classifications, got.Classifications) {
			t.Fatalf("Classification not deterministic on run %d", i)
		}
	}
}

func TestSupplementalClassifier_TagsItsSource(t *testing.T) {
	c := NewSupplementalClassifier(newTestManager(), time.Second)
	img := uniformImage(32, 32, color.RGBA{R: 10, G: 180, B: 90, A: 255})

	unit, err := c.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Kind != models.UnitSupplementalClassifier {
		t.Errorf("Expected supplemental unit kind, got %s", unit.Kind)
	}
	if c.Source() != models.SourceSupplementalClassifier {
		t.Errorf("Expected supplemental source, got %s", c.Source())
	}
	for _, r := range unit.Classifications {
		if r.Source != models.SourceSupplementalClassifier {
			t.Errorf("Expected supplemental source on %q, got %s", r.Label, r.Source)
		}
	}
}

func TestClassifier_CancelledContext(t *testing.T) {
	c := NewBaseClassifier(newTestManager(), time.Second)
	img := uniformImage(32, 32, color.RGBA{A: 255})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Run(ctx, img); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestScoreLabel_StableAndBounded(t *testing.T) {
	features := [4]float64{0.5, 0.3, 0.7, 0.1}

	first := scoreLabel("landscape", features)
	if first <= 0 || first >= 1 {
		t.Errorf("Score out of (0,1): %f", first)
	}
	if scoreLabel("landscape", features) != first {
		t.Error("Score not stable for identical input")
	}

	// Per-label weights must actually differentiate labels.
	distinct := map[float64]bool{}
	for _, label := range []string{"landscape", "portrait", "food", "animal", "water"} {
		distinct[scoreLabel(label, features)] = true
	}
	if len(distinct) < 2 {
		t.Error("All labels scored identically; weights look degenerate")
	}
}

func TestLabelWeight_Range(t *testing.T) {
	for _, label := range []string{"landscape", "food", "animal", "x"} {
		for i := 0; i < 4; i++ {
			w := labelWeight(label, i)
			if w < -1 || w > 1 {
				t.Errorf("Weight for (%q,%d) out of [-1,1]: %f", label, i, w)
			}
		}
	}
}
