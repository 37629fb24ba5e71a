package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
)

// LocalImageFetcher reads images from the local file system. The file's
// modification time rides along so the result cache can key on content
// state: touching the file produces a new key.
type LocalImageFetcher struct{}

// NewLocalImageFetcher creates a local file system image fetcher.
func NewLocalImageFetcher() ImageFetcher {
	return &LocalImageFetcher{}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, *SourceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if fi.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", abs, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s: %w", abs, err)
	}

	return img, &SourceInfo{Path: abs, ModTime: fi.ModTime(), HasFile: true}, nil
}
