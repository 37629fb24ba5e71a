package analyzer

import (
	"context"
	"image/color"
	"math"
	"testing"
	"time"

	"go-photo-insight/pkg/models"
)

func TestObjectDetector_FindsHighContrastRegion(t *testing.T) {
	d := NewObjectDetector(newTestManager(), time.Second)

	// Dark field with one bright grid cell at (1, 1).
	img := uniformImage(80, 80, color.RGBA{R: 30, G: 30, B: 30, A: 255})
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	unit, err := d.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Kind != models.UnitObjectDetection || unit.Status != models.StatusSuccess {
		t.Fatalf("Unexpected unit header: %+v", unit)
	}
	if len(unit.Objects) != 1 {
		t.Fatalf("Expected 1 detected object, got %d", len(unit.Objects))
	}
	obj := unit.Objects[0]
	if obj.Label == "" {
		t.Error("Expected object labeled from the detector vocabulary")
	}
	if math.Abs(obj.Box.X-0.25) > 0.001 || math.Abs(obj.Box.Y-0.25) > 0.001 {
		t.Errorf("Expected object at grid cell (1,1), got box %+v", obj.Box)
	}
	if obj.Confidence < 0.5 || obj.Confidence > 0.99 {
		t.Errorf("Confidence out of expected range: %f", obj.Confidence)
	}
}

func TestObjectDetector_UniformImageFindsNothing(t *testing.T) {
	d := NewObjectDetector(newTestManager(), time.Second)
	img := uniformImage(80, 80, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	unit, err := d.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(unit.Objects) != 0 {
		t.Errorf("Expected no objects in uniform image, got %d", len(unit.Objects))
	}
}

func TestObjectDetector_TinyImage(t *testing.T) {
	d := NewObjectDetector(newTestManager(), time.Second)
	img := uniformImage(2, 2, color.RGBA{A: 255})

	unit, err := d.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(unit.Objects) != 0 {
		t.Error("Expected no objects below grid resolution")
	}
}
