package storage

import (
	"context"
	"image"
	"time"
)

// SourceInfo describes where a fetched image came from, for cache keying.
// HasFile is true when Path and ModTime identify a content state.
type SourceInfo struct {
	Path    string
	ModTime time.Time
	HasFile bool
}

// ImageFetcher resolves an image reference into decoded pixels plus source
// identity.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (image.Image, *SourceInfo, error)
}
