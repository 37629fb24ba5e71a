package repository

import (
	"context"
	"image"
	"strings"

	"go-photo-insight/internal/storage"
)

// imageRepository routes references to the matching fetcher: URLs to the
// HTTP fetcher, everything else to the local file system.
type imageRepository struct {
	httpFetcher  storage.ImageFetcher
	localFetcher storage.ImageFetcher
}

// NewImageRepository creates a repository over the given fetchers.
func NewImageRepository(httpFetcher, localFetcher storage.ImageFetcher) ImageRepository {
	return &imageRepository{
		httpFetcher:  httpFetcher,
		localFetcher: localFetcher,
	}
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// FetchImage retrieves and decodes the referenced image.
func (r *imageRepository) FetchImage(ctx context.Context, ref string) (image.Image, *storage.SourceInfo, error) {
	if err := r.ValidateImageRef(ref); err != nil {
		return nil, nil, err
	}
	if isURL(ref) {
		return r.httpFetcher.FetchImage(ctx, ref)
	}
	return r.localFetcher.FetchImage(ctx, ref)
}

// ValidateImageRef rejects empty or whitespace-only references.
func (r *imageRepository) ValidateImageRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return ErrInvalidImageRef
	}
	return nil
}
