package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
	"github.com/otiai10/gosseract/v2"

	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/pkg/models"
)

// OCREngine recognizes text in an image. Split out so tests can substitute a
// deterministic engine for the tesseract binding.
type OCREngine interface {
	Recognize(ctx context.Context, img image.Image) (text string, confidence float64, err error)
}

// textRecognizer runs OCR and, when an expected string is configured on the
// request, scores the match with edit distance and word error rate.
type textRecognizer struct {
	engine       OCREngine
	timeout      time.Duration
	expectedText string
}

// NewTextRecognizer creates the text-recognition analyzer. A nil engine
// selects the tesseract-backed default.
func NewTextRecognizer(engine OCREngine, timeout time.Duration, expectedText string) Analyzer {
	if engine == nil {
		engine = &gosseractEngine{}
	}
	return &textRecognizer{engine: engine, timeout: timeout, expectedText: expectedText}
}

func (t *textRecognizer) Kind() models.UnitKind  { return models.UnitText }
func (t *textRecognizer) Timeout() time.Duration { return t.timeout }

func (t *textRecognizer) Run(ctx context.Context, img image.Image) (models.AnalysisUnit, error) {
	started := time.Now()

	text, confidence, err := t.engine.Recognize(ctx, img)
	if err != nil {
		return models.AnalysisUnit{}, apperrors.NewBackendError("text recognition failed", err)
	}

	result := &models.TextResult{
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
	}

	if t.expectedText != "" {
		result.ExpectedText = t.expectedText
		result.MatchDistance = levenshtein.Distance(
			strings.ToLower(result.Text),
			strings.ToLower(t.expectedText),
		)
		result.WordErrorRate = wordErrorRate(t.expectedText, result.Text)
	}

	unit := newUnit(models.UnitText, started)
	unit.Text = result
	return unit, nil
}

// wordErrorRate compares hypothesis tokens against the reference.
func wordErrorRate(reference, hypothesis string) float64 {
	ref := strings.Fields(strings.ToLower(reference))
	hyp := strings.Fields(strings.ToLower(hypothesis))
	if len(ref) == 0 {
		return 0
	}
	rate, _ := wer.WER(ref, hyp)
	return rate
}

// gosseractEngine is the tesseract-backed OCR engine. Clients are not safe
// for concurrent use, so one is created per invocation.
type gosseractEngine struct{}

func (e *gosseractEngine) Recognize(ctx context.Context, img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, err
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, err
	}
	text, err := client.Text()
	if err != nil {
		return "", 0, err
	}
	return text, 0.9, nil
}
