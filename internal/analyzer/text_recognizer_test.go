package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/pkg/models"
)

// fakeOCR returns canned text without touching tesseract.
type fakeOCR struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeOCR) Recognize(ctx context.Context, img image.Image) (string, float64, error) {
	return f.text, f.confidence, f.err
}

func textTestImage() image.Image {
	return uniformImage(16, 16, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}

func TestTextRecognizer_RecognizedText(t *testing.T) {
	engine := &fakeOCR{text: "  hello world \n", confidence: 0.9}
	r := NewTextRecognizer(engine, time.Second, "")

	unit, err := r.Run(context.Background(), textTestImage())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Kind != models.UnitText || unit.Status != models.StatusSuccess {
		t.Fatalf("Unexpected unit header: %+v", unit)
	}
	if unit.Text.Text != "hello world" {
		t.Errorf("Expected trimmed text, got %q", unit.Text.Text)
	}
	if unit.Text.Confidence != 0.9 {
		t.Errorf("Expected confidence passthrough, got %f", unit.Text.Confidence)
	}
	if unit.Text.ExpectedText != "" || unit.Text.MatchDistance != 0 {
		t.Errorf("Expected no match scoring without an expected string, got %+v", unit.Text)
	}
}

func TestTextRecognizer_ExactMatchScoring(t *testing.T) {
	engine := &fakeOCR{text: "Hello World", confidence: 0.95}
	r := NewTextRecognizer(engine, time.Second, "hello world")

	unit, err := r.Run(context.Background(), textTestImage())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Text.ExpectedText != "hello world" {
		t.Errorf("Expected the configured reference recorded, got %q", unit.Text.ExpectedText)
	}
	// Comparison is case-insensitive.
	if unit.Text.MatchDistance != 0 {
		t.Errorf("Expected zero edit distance, got %d", unit.Text.MatchDistance)
	}
	if unit.Text.WordErrorRate != 0 {
		t.Errorf("Expected zero word error rate, got %f", unit.Text.WordErrorRate)
	}
}

func TestTextRecognizer_MismatchScoring(t *testing.T) {
	engine := &fakeOCR{text: "hallo wurld", confidence: 0.6}
	r := NewTextRecognizer(engine, time.Second, "hello world")

	unit, err := r.Run(context.Background(), textTestImage())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if unit.Text.MatchDistance == 0 {
		t.Error("Expected non-zero edit distance for OCR errors")
	}
	if unit.Text.WordErrorRate <= 0 {
		t.Errorf("Expected positive word error rate, got %f", unit.Text.WordErrorRate)
	}
}

func TestTextRecognizer_EngineFailure(t *testing.T) {
	engine := &fakeOCR{err: errors.New("tesseract not installed")}
	r := NewTextRecognizer(engine, time.Second, "")

	_, err := r.Run(context.Background(), textTestImage())
	if err == nil {
		t.Fatal("Expected error from failing engine")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeBackend) {
		t.Errorf("Expected backend error, got %v", err)
	}
}

func TestWordErrorRate_EmptyReference(t *testing.T) {
	if rate := wordErrorRate("", "whatever"); rate != 0 {
		t.Errorf("Expected zero rate for empty reference, got %f", rate)
	}
}
