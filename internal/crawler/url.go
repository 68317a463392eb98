package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URL validation failures.
var (
	ErrEmptyURL      = errors.New("url is required")
	ErrInvalidURL    = errors.New("url must be an absolute http(s) url")
	ErrForeignDomain = errors.New("url is not on the expected site")
)

// ValidateProductURL checks that raw is an absolute http(s) URL containing
// siteDomain. An empty siteDomain accepts any host.
func ValidateProductURL(raw, siteDomain string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyURL
	}
	if siteDomain != "" && !strings.Contains(strings.ToLower(raw), strings.ToLower(siteDomain)) {
		return fmt.Errorf("%w: %s", ErrForeignDomain, siteDomain)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
