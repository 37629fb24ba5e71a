package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents one pipeline lifecycle event
type AnalysisEvent struct {
	EventType      EventType     `json:"event_type"`
	Timestamp      time.Time     `json:"timestamp"`
	Source         string        `json:"source,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	Detail         string        `json:"detail,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// AnalysisStarted when an orchestration call begins dispatching
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a composed result is returned
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the call fails outright
	AnalysisFailed EventType = "analysis_failed"
	// CacheHit when a prior result is served without analyzer work
	CacheHit EventType = "cache_hit"
	// AnalyzerTimedOut when a single analyzer missed its deadline
	AnalyzerTimedOut EventType = "analyzer_timed_out"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"source":          event.Source,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.Detail != "" {
		fields["detail"] = event.Detail
	}

	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Debug("Image analysis started")
	case AnalysisCompleted:
		o.logger.WithFields(fields).Info("Image analysis completed")
	case AnalysisFailed:
		o.logger.WithFields(fields).Error("Image analysis failed")
	case CacheHit:
		o.logger.WithFields(fields).Debug("Analysis served from cache")
	case AnalyzerTimedOut:
		o.logger.WithFields(fields).Warn("Analyzer missed its deadline")
	default:
		o.logger.WithFields(fields).Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	completedAnalyses   int64
	failedAnalyses      int64
	cacheHits           int64
	analyzerTimeouts    int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.completedAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
	case CacheHit:
		o.cacheHits++
	case AnalyzerTimedOut:
		o.analyzerTimeouts++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedAnalyses)
	}

	return map[string]interface{}{
		"total_analyses":      o.totalAnalyses,
		"completed_analyses":  o.completedAnalyses,
		"failed_analyses":     o.failedAnalyses,
		"cache_hits":          o.cacheHits,
		"analyzer_timeouts":   o.analyzerTimeouts,
		"avg_processing_time": avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{observers: make([]Observer, 0)}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
