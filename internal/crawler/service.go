package crawler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/metrics"
)

var tracer = otel.Tracer("github.com/alibyilmaz/unimallaicase/internal/crawler")

// Service answers crawl requests from the cache, walking the page on a miss.
type Service struct {
	resolver *Resolver
	cache    *Cache
	logger   *zap.Logger
}

// NewService wires a Resolver to a Cache. A nil cache gets a fresh one.
func NewService(resolver *Resolver, cache *Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// Crawl returns the main product and its variants for url.
func (s *Service) Crawl(ctx context.Context, url string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "crawler.Crawl", trace.WithAttributes(attribute.String("url", url)))
	defer span.End()

	products, hit, err := s.cache.GetOrCompute(ctx, url, func(ctx context.Context) ([]Product, error) {
		return s.resolver.Resolve(ctx, url)
	})
	if err != nil {
		metrics.ObserveCrawl("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "crawl failed")
		return nil, fmt.Errorf("crawl %s: %w", url, err)
	}
	if hit {
		metrics.ObserveCrawl("cache_hit")
		s.logger.Debug("crawl served from cache", zap.String("url", url), zap.Int("products", len(products)))
	} else {
		metrics.ObserveCrawl("fetched")
	}
	span.SetAttributes(attribute.Bool("cache_hit", hit), attribute.Int("products", len(products)))
	return products, nil
}

// CacheSize reports how many URLs are cached.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}
