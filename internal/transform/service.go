// Package transform turns crawled products into translated, scored products.
package transform

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
	"github.com/alibyilmaz/unimallaicase/internal/metrics"
	"github.com/alibyilmaz/unimallaicase/internal/score"
	"github.com/alibyilmaz/unimallaicase/internal/translate"
)

var tracer = otel.Tracer("github.com/alibyilmaz/unimallaicase/internal/transform")

// DefaultConcurrency bounds TransformAll when no limit is configured.
const DefaultConcurrency = 4

// Translator translates the text of a product.
type Translator interface {
	TranslateMain(ctx context.Context, p crawler.Product) (translate.MainFields, error)
	TranslateAttributes(ctx context.Context, attrs []crawler.ProductAttribute) []crawler.ProductAttribute
}

// Transformer is the inbound surface used by the API and CLI.
type Transformer interface {
	Transform(ctx context.Context, p crawler.Product) (crawler.Product, error)
	TransformAll(ctx context.Context, products []crawler.Product) ([]crawler.Product, error)
}

// Service orchestrates probe, translation and scoring.
type Service struct {
	translator  Translator
	probe       crawler.ImageCounter
	concurrency int
	logger      *zap.Logger
}

// NewService builds a Service. probe may be nil to disable the image probe.
func NewService(translator Translator, probe crawler.ImageCounter, concurrency int, logger *zap.Logger) (*Service, error) {
	if translator == nil {
		return nil, fmt.Errorf("translator is required")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		translator:  translator,
		probe:       probe,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Transform returns a translated and scored copy of p. p is not modified.
// A main-field translation failure aborts the transform.
func (s *Service) Transform(ctx context.Context, p crawler.Product) (crawler.Product, error) {
	ctx, span := tracer.Start(ctx, "transform.Transform", trace.WithAttributes(attribute.String("sku", p.Sku)))
	defer span.End()

	logger := s.logger.With(zap.String("sku", p.Sku))
	logger.Info("starting product transformation")

	if p.URL != "" && s.probe != nil {
		count := s.probe.CountImages(ctx, p.URL)
		metrics.ObserveProbeImages(count)
		logger.Info("probed page images", zap.Int("count", count), zap.String("url", p.URL))
	}

	src := p.Clone()
	out := crawler.Product{
		Sku:             src.Sku,
		ParentSku:       src.ParentSku,
		OriginalPrice:   src.OriginalPrice,
		DiscountedPrice: src.DiscountedPrice,
		URL:             src.URL,
		Images:          src.Images,
		Attributes:      src.Attributes,
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	if out.Attributes == nil {
		out.Attributes = []crawler.ProductAttribute{}
	}

	fields, err := s.translator.TranslateMain(ctx, src)
	if err != nil {
		metrics.ObserveTransform("error")
		logger.Error("product transformation failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		return crawler.Product{}, fmt.Errorf("transform %s: %w", p.Sku, err)
	}
	out.Name = fields.Name
	out.Description = fields.Description
	out.Brand = fields.Brand
	out.Category = fields.Category

	if len(src.Attributes) > 0 {
		out.Attributes = s.translator.TranslateAttributes(ctx, src.Attributes)
	}

	total, breakdown := score.Compute(score.FromProduct(out))
	out.Score = &total
	metrics.ObserveScore(total)
	metrics.ObserveTransform("success")
	span.SetAttributes(attribute.Int("score", total))

	logger.Info("completed product transformation",
		zap.Int("name_score", breakdown.Name),
		zap.Int("description_score", breakdown.Desc),
		zap.Int("image_score", breakdown.Image),
		zap.Int("image_count", breakdown.ImageCount),
		zap.Int("attribute_score", breakdown.Attribute),
		zap.Int("attribute_count", breakdown.AttrCount),
		zap.Strings("penalties", breakdown.Penalties),
		zap.Int("score", total),
	)
	return out, nil
}

// TransformAll transforms products concurrently and returns them in input
// order. The first failure cancels the rest and is returned.
func (s *Service) TransformAll(ctx context.Context, products []crawler.Product) ([]crawler.Product, error) {
	results := make([]crawler.Product, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range products {
		g.Go(func() error {
			out, err := s.Transform(gctx, p)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
