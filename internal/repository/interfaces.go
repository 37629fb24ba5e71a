package repository

import (
	"context"
	"image"

	"go-photo-insight/internal/storage"
)

// ImageRepository resolves an image reference (http(s) URL or local path)
// into decoded pixels plus source identity for cache keying.
type ImageRepository interface {
	FetchImage(ctx context.Context, ref string) (image.Image, *storage.SourceInfo, error)
	ValidateImageRef(ref string) error
}
