package crawler

import (
	"context"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// HeadlessDetector decides whether a headless fetch is warranted.
type HeadlessDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// Crawler returns the product set (main product plus variants) for a URL.
type Crawler interface {
	Crawl(ctx context.Context, url string) ([]Product, error)
}

// ImageCounter reports how many product images a page carries.
type ImageCounter interface {
	CountImages(ctx context.Context, url string) int
}
