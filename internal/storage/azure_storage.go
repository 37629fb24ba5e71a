package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher reads images from Azure blob storage. The blob's
// last-modified time stands in for file modification time in cache keys.
type AzureImageFetcher struct {
	client *azblob.Client
}

// NewAzureImageFetcher creates a blob-backed fetcher from the
// AZURE_STORAGE_ACCOUNT / AZURE_STORAGE_KEY environment pair.
func NewAzureImageFetcher() (ImageFetcher, error) {
	accountName := os.Getenv("AZURE_STORAGE_ACCOUNT")
	accountKey := os.Getenv("AZURE_STORAGE_KEY")
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("azure storage credentials not configured")
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureImageFetcher{client: client}, nil
}

// FetchImage downloads a blob referenced as container path plus a blob query
// parameter, matching the service's blob URL convention.
func (s *AzureImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, *SourceInfo, error) {
	parsedURL, err := url.Parse(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid blob URL: %w", err)
	}
	if parsedURL.Path == "" {
		return nil, nil, fmt.Errorf("blob URL missing container path")
	}

	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	if err != nil {
		return nil, nil, err
	}

	info := &SourceInfo{Path: ref}
	if downloadResponse.LastModified != nil {
		info.ModTime = *downloadResponse.LastModified
		info.HasFile = true
	}
	return img, info, nil
}
