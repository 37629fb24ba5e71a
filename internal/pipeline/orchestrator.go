package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-photo-insight/internal/analyzer"
	"go-photo-insight/internal/backend"
	"go-photo-insight/internal/cache"
	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/internal/fusion"
	"go-photo-insight/internal/logger"
	"go-photo-insight/internal/observer"
	"go-photo-insight/internal/strategy"
	"go-photo-insight/pkg/models"
	"go-photo-insight/pkg/validation"
)

// Request is one analysis call. Immutable for the call's duration.
type Request struct {
	// Image is the decoded pixel buffer. Required.
	Image image.Image
	// SourcePath and ModTime identify the backing file when HasFile is
	// true; otherwise the cache key falls back to a content hash.
	SourcePath string
	ModTime    time.Time
	HasFile    bool
	// ForceRefresh bypasses the cache lookup (the fresh result still
	// replaces the cached one).
	ForceRefresh bool
	// PriorResult is an optional hint from a previous call. Consulted only
	// when the cache misses and the hint's key still matches.
	PriorResult *models.ImageAnalysisResult
	priorKey    cache.Key
}

// WithPriorResult attaches a prior-result hint keyed to the content state it
// was computed from.
func (r Request) WithPriorResult(result *models.ImageAnalysisResult, key cache.Key) Request {
	r.PriorResult = result
	r.priorKey = key
	return r
}

// Orchestrator coordinates one analysis call end to end: cache lookup, mode
// selection, bounded concurrent fan-out, fusion, cache write-through.
type Orchestrator struct {
	analyzers   map[models.UnitKind]analyzer.Analyzer
	cache       *cache.ResultCache
	selector    *backend.Selector
	events      observer.Subject
	maxParallel int
	enabled     bool
}

// NewOrchestrator wires the orchestrator. events may be nil.
func NewOrchestrator(
	analyzers map[models.UnitKind]analyzer.Analyzer,
	resultCache *cache.ResultCache,
	selector *backend.Selector,
	events observer.Subject,
	maxParallel int,
	enabled bool,
) *Orchestrator {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Orchestrator{
		analyzers:   analyzers,
		cache:       resultCache,
		selector:    selector,
		events:      events,
		maxParallel: maxParallel,
		enabled:     enabled,
	}
}

// settled pairs a dispatched analyzer with its outcome.
type settled struct {
	kind models.UnitKind
	unit models.AnalysisUnit
}

// Analyze runs the pipeline for one request. Partial analyzer failure is the
// normal case and yields a best-effort result; the call errors only on
// invalid input, a disabled pipeline, cancellation, or total failure.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*models.ImageAnalysisResult, error) {
	if !o.enabled {
		return nil, apperrors.NewFeatureNotAvailableError("image analysis is disabled")
	}
	if err := validation.ValidateImage(req.Image); err != nil {
		return nil, apperrors.NewInvalidImageError("request carries no usable image", err)
	}

	started := time.Now()
	key := o.cacheKey(req)

	if !req.ForceRefresh {
		if cached, ok := o.cache.Get(key); ok {
			o.notify(observer.CacheHit, req.SourcePath, 0, true, "")
			hit := *cached
			hit.Diagnostics.CacheHit = true
			return &hit, nil
		}
		if req.PriorResult != nil && req.priorKey == key {
			return req.PriorResult, nil
		}
	}

	mode := o.selector.CurrentMode()
	kinds := strategy.ForMode(mode).AnalyzerKinds()

	o.notify(observer.AnalysisStarted, req.SourcePath, 0, true, "")
	units := o.dispatch(ctx, req.Image, kinds)

	// A cancelled call returns the context error and never touches the
	// cache, so no analyzer work outlives the caller.
	if err := ctx.Err(); err != nil {
		o.notify(observer.AnalysisFailed, req.SourcePath, time.Since(started), false, err.Error())
		return nil, err
	}

	succeeded := 0
	for _, u := range units {
		if u.Status.Settled() {
			succeeded++
		}
	}
	if succeeded == 0 {
		err := apperrors.NewBackendError(
			fmt.Sprintf("all %d analyzers failed or timed out", len(units)), nil)
		o.notify(observer.AnalysisFailed, req.SourcePath, time.Since(started), false, err.Error())
		return nil, err
	}

	result := o.compose(req, mode, units, started)
	o.cache.Put(key, result)
	o.notify(observer.AnalysisCompleted, req.SourcePath, time.Since(started), true, "")
	return result, nil
}

// InvalidateSource drops the cached result for a file state.
func (o *Orchestrator) InvalidateSource(path string, modTime time.Time) {
	o.cache.Invalidate(cache.KeyForFile(path, modTime))
}

func (o *Orchestrator) cacheKey(req Request) cache.Key {
	if req.HasFile && req.SourcePath != "" {
		return cache.KeyForFile(req.SourcePath, req.ModTime)
	}
	return cache.KeyForImage(req.Image)
}

// dispatch fans the selected analyzers out under bounded parallelism and
// waits for every one of them to settle: complete, fail, or time out.
func (o *Orchestrator) dispatch(ctx context.Context, img image.Image, kinds []models.UnitKind) []models.AnalysisUnit {
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)

	results := make(chan settled, len(kinds))
	dispatched := 0

	for _, kind := range kinds {
		a, ok := o.analyzers[kind]
		if !ok {
			results <- settled{kind, models.AbsentUnit(kind, models.StatusSkipped, nil)}
			continue
		}
		dispatched++
		g.Go(func() error {
			results <- settled{kind, o.runOne(groupCtx, a, img)}
			// Analyzer failures never cancel siblings.
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	byKind := make(map[models.UnitKind]models.AnalysisUnit, len(kinds))
	for s := range results {
		byKind[s.kind] = s.unit
	}

	units := make([]models.AnalysisUnit, 0, len(kinds))
	for _, kind := range kinds {
		units = append(units, byKind[kind])
	}
	return units
}

// runOne executes a single analyzer under its own deadline, translating
// every outcome into a settled unit.
func (o *Orchestrator) runOne(ctx context.Context, a analyzer.Analyzer, img image.Image) (unit models.AnalysisUnit) {
	taskCtx, cancel := context.WithTimeout(ctx, a.Timeout())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.WithAnalyzer(string(a.Kind())).
				WithField("panic", r).
				Error("Analyzer panicked")
			unit = models.AbsentUnit(a.Kind(), models.StatusFailed,
				fmt.Errorf("panic: %v", r))
		}
	}()

	started := time.Now()
	got, err := a.Run(taskCtx, img)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		got.Elapsed = elapsed
		return got
	case errors.Is(err, context.DeadlineExceeded) || taskCtx.Err() == context.DeadlineExceeded:
		logger.WithAnalyzer(string(a.Kind())).WithFields(logrus.Fields{
			"timeout": a.Timeout().String(),
			"elapsed": elapsed.String(),
		}).Warn("Analyzer timed out")
		o.notify(observer.AnalyzerTimedOut, "", elapsed, false, string(a.Kind()))
		return models.AbsentUnit(a.Kind(), models.StatusTimeout,
			apperrors.NewAnalysisTimeoutError(string(a.Kind()), err))
	default:
		logger.WithAnalyzer(string(a.Kind())).WithError(err).Warn("Analyzer failed")
		return models.AbsentUnit(a.Kind(), models.StatusFailed, err)
	}
}

// compose folds settled units plus the fused classification list into the
// final immutable result.
func (o *Orchestrator) compose(req Request, mode backend.AnalysisMode, units []models.AnalysisUnit, started time.Time) *models.ImageAnalysisResult {
	var sourceA, sourceB []models.ClassificationResult
	statuses := make(map[models.UnitKind]models.UnitStatus, len(units))

	for _, u := range units {
		statuses[u.Kind] = u.Status
		switch u.Kind {
		case models.UnitClassification:
			sourceA = u.Classifications
		case models.UnitSupplementalClassifier:
			sourceB = u.Classifications
		}
	}

	return &models.ImageAnalysisResult{
		ID:                   uuid.NewString(),
		SourcePath:           req.SourcePath,
		Timestamp:            started,
		FusedClassifications: fusion.Merge(sourceA, sourceB),
		Units:                units,
		Diagnostics: models.Diagnostics{
			Mode:         string(mode),
			ElapsedSec:   time.Since(started).Seconds(),
			UnitStatuses: statuses,
		},
	}
}

func (o *Orchestrator) notify(eventType observer.EventType, source string, elapsed time.Duration, success bool, detail string) {
	if o.events == nil {
		return
	}
	o.events.NotifyObservers(context.Background(), observer.AnalysisEvent{
		EventType:      eventType,
		Timestamp:      time.Now(),
		Source:         source,
		ProcessingTime: elapsed,
		Success:        success,
		Detail:         detail,
	})
}
