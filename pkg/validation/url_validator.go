package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateImageURL checks that a remote image reference is a well-formed
// http(s) URL with a host.
func ValidateImageURL(imageURL string) error {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return fmt.Errorf("URL is empty")
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL must have a valid host")
	}
	return nil
}
