package crawler

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ImageProbe counts gallery images on a page with a separate, best-effort fetch.
type ImageProbe struct {
	fetcher    Fetcher
	siteDomain string
	logger     *zap.Logger
}

// NewImageProbe builds an ImageProbe. siteDomain enables the site-specific
// gallery selector for URLs on that domain.
func NewImageProbe(fetcher Fetcher, siteDomain string, logger *zap.Logger) *ImageProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProbe{
		fetcher:    fetcher,
		siteDomain: siteDomain,
		logger:     logger,
	}
}

// CountImages returns the number of product images at url, or 0 when the
// page cannot be fetched or carries none.
func (p *ImageProbe) CountImages(ctx context.Context, url string) int {
	if url == "" || p.fetcher == nil {
		return 0
	}
	doc, _, err := loadDocument(ctx, p.fetcher, url)
	if err != nil {
		p.logger.Warn("image probe failed", zap.String("url", url), zap.Error(err))
		return 0
	}
	root := doc.Selection
	if p.siteDomain != "" && strings.Contains(url, p.siteDomain) {
		if n := root.Find("div[class*='gallery-container'] img").Length(); n > 0 {
			return n
		}
	}
	if n := root.Find("div[class*='product-image'] img, div[class*='gallery'] img").Length(); n > 0 {
		return n
	}
	return root.Find("img[src*='product'], img[alt*='product']").Length()
}
