package container

import (
	"fmt"
	"net/http"

	"go-photo-insight/internal/backend"
	"go-photo-insight/internal/cache"
	"go-photo-insight/internal/config"
	"go-photo-insight/internal/factory"
	"go-photo-insight/internal/logger"
	"go-photo-insight/internal/model"
	"go-photo-insight/internal/observer"
	"go-photo-insight/internal/pipeline"
	"go-photo-insight/internal/repository"
	"go-photo-insight/internal/service"
	"go-photo-insight/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	selector     *backend.Selector
	modelManager *model.Manager
	resultCache  *cache.ResultCache
	orchestrator *pipeline.Orchestrator
	service      service.InsightService
	metrics      *observer.MetricsObserver
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	// Capability probe runs once; the selector caches the decision.
	caps := backend.DetectCapability()

	var forced backend.AnalysisMode
	if cfg.ForcedBackendMode != "" {
		mode, ok := backend.ParseMode(cfg.ForcedBackendMode)
		if !ok {
			return nil, fmt.Errorf("unknown FORCED_BACKEND_MODE %q", cfg.ForcedBackendMode)
		}
		forced = mode
	}
	selector := backend.NewSelector(backend.DetectCapability, forced)

	modelManager := model.NewManager(caps, nil)
	resultCache := cache.NewResultCache(cfg.CacheMaxEntries, cfg.CacheMaxBytes)

	analyzerFactory := factory.NewAnalyzerFactory(modelManager, cfg, nil)
	analyzers, err := analyzerFactory.CreateSet()
	if err != nil {
		return nil, fmt.Errorf("building analyzer set: %w", err)
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	orchestrator := pipeline.NewOrchestrator(
		analyzers, resultCache, selector, events,
		cfg.MaxConcurrentAnalyzers, cfg.AnalysisEnabled,
	)

	storageFactory := factory.NewStorageFactory(cfg)
	httpFetcher, err := storageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	localFetcher, err := storageFactory.CreateStorage(factory.LocalStorage)
	if err != nil {
		return nil, err
	}

	imageRepository := repository.NewImageRepository(httpFetcher, localFetcher)
	insightService := service.NewInsightService(imageRepository, orchestrator)
	handler := transport.NewHandler(insightService, metrics, cfg)

	return &Container{
		config:       cfg,
		selector:     selector,
		modelManager: modelManager,
		resultCache:  resultCache,
		orchestrator: orchestrator,
		service:      insightService,
		metrics:      metrics,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.InsightService {
	return c.service
}

// RefreshCapability re-probes system capability, for explicit
// capability-change signals.
func (c *Container) RefreshCapability() backend.AnalysisMode {
	return c.selector.Refresh()
}
