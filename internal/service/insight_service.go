package service

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	apperrors "go-photo-insight/internal/errors"
	"go-photo-insight/internal/pipeline"
	"go-photo-insight/internal/repository"
	"go-photo-insight/pkg/models"
	"go-photo-insight/pkg/validation"
)

// InsightService is the surface the transport layer talks to: it resolves a
// reference into pixels and hands the pipeline an analysis request.
type InsightService interface {
	AnalyzeRef(ctx context.Context, ref string, forceRefresh bool) (*models.ImageAnalysisResult, error)
	ValidateRef(ref string) error
}

type insightService struct {
	imageRepo    repository.ImageRepository
	orchestrator *pipeline.Orchestrator
}

// NewInsightService creates the analysis service.
func NewInsightService(imageRepo repository.ImageRepository, orchestrator *pipeline.Orchestrator) InsightService {
	return &insightService{
		imageRepo:    imageRepo,
		orchestrator: orchestrator,
	}
}

// AnalyzeRef fetches the referenced image and runs the pipeline on it.
func (s *insightService) AnalyzeRef(ctx context.Context, ref string, forceRefresh bool) (*models.ImageAnalysisResult, error) {
	if err := s.ValidateRef(ref); err != nil {
		return nil, apperrors.NewValidationError("invalid image reference", err)
	}

	img, info, err := s.imageRepo.FetchImage(ctx, ref)
	if err != nil {
		return nil, classifyFetchError(ref, err)
	}

	req := pipeline.Request{
		Image:        img,
		ForceRefresh: forceRefresh,
	}
	if info != nil && info.HasFile {
		req.SourcePath = info.Path
		req.ModTime = info.ModTime
		req.HasFile = true
	}

	return s.orchestrator.Analyze(ctx, req)
}

// classifyFetchError maps a fetch failure to its transport-visible cause.
// Only remote references fail on the network; a local reference fails on a
// missing file or on bytes that do not decode as an image.
func classifyFetchError(ref string, err error) error {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewNotFoundError("image file not found", err)
	}
	return apperrors.NewValidationError("unreadable image file", err)
}

// ValidateRef checks the reference is either a well-formed URL or a
// non-empty path.
func (s *insightService) ValidateRef(ref string) error {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return validation.ValidateImageURL(ref)
	}
	return s.imageRepo.ValidateImageRef(ref)
}
