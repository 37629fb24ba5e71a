package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-photo-insight/internal/config"
	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/internal/logger"
	"go-photo-insight/internal/observer"
	"go-photo-insight/internal/service"
)

// AnalysisRequest is the analyze endpoint's payload. Ref is an http(s) URL
// or a local path.
type AnalysisRequest struct {
	Ref          string `json:"ref" binding:"required"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface: analyze, health, and stats.
func NewHandler(svc service.InsightService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/stats", statsHandler(metrics))
	r.POST("/analyze", analyzeImage(svc, cfg))

	return r
}

func analyzeImage(svc service.InsightService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing image analysis request")

		var req AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := svc.ValidateRef(req.Ref); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ref": req.Ref,
				"ip":  c.ClientIP(),
			}).Error("Invalid image reference")
			respondError(c, apperrors.GetStatusCode(err), "invalid image reference", err)
			return
		}

		// force_refresh query parameter takes precedence over the body.
		if force := c.Query("force_refresh"); force != "" {
			req.ForceRefresh = force == "true"
		}

		result, err := svc.AnalyzeRef(ctx, req.Ref, req.ForceRefresh)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ref": req.Ref,
				"ip":  c.ClientIP(),
			}).Error("Image analysis failed")
			respondError(c, determineStatusCode(err), "image analysis failed", err)
			return
		}

		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"ref":                req.Ref,
			"processing_time_ms": duration.Milliseconds(),
			"mode":               result.Diagnostics.Mode,
			"cache_hit":          result.Diagnostics.CacheHit,
			"settled_units":      result.SettledUnits(),
			"classifications":    len(result.FusedClassifications),
		}).Info("Image analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func statsHandler(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}
