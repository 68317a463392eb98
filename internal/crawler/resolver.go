package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/metrics"
)

// DefaultBaseURL is the site origin variant links are resolved against.
const DefaultBaseURL = "https://www.trendyol.com"

const variantLinkSelector = "div[class*='variant-list'] a"

// Resolver walks a product page and its variant links.
type Resolver struct {
	fetcher   Fetcher
	extractor *Extractor
	baseURL   *url.URL
	logger    *zap.Logger
}

// NewResolver builds a Resolver. An empty baseURL uses DefaultBaseURL.
func NewResolver(fetcher Fetcher, extractor *Extractor, baseURL string, logger *zap.Logger) (*Resolver, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fetcher:   fetcher,
		extractor: extractor,
		baseURL:   base,
		logger:    logger,
	}, nil
}

// Resolve extracts the product at productURL followed by every variant linked
// from it. Variants are fetched one at a time in document order; a variant
// that fails is logged and left out.
func (r *Resolver) Resolve(ctx context.Context, productURL string) ([]Product, error) {
	doc, err := r.load(ctx, productURL)
	if err != nil {
		return nil, err
	}
	primary := r.extractor.Extract(doc, productURL)
	primary.URL = productURL
	products := []Product{primary}

	for _, variantURL := range r.variantLinks(doc, productURL) {
		variantDoc, err := r.load(ctx, variantURL)
		if err != nil {
			metrics.ObserveVariantSkipped()
			r.logger.Warn("variant fetch failed, skipping",
				zap.String("url", variantURL),
				zap.String("parent_sku", primary.Sku),
				zap.Error(err),
			)
			continue
		}
		variant := r.extractor.Extract(variantDoc, variantURL)
		variant.ParentSku = primary.Sku
		variant.URL = variantURL
		products = append(products, variant)
	}

	r.logger.Info("resolved product set",
		zap.String("url", productURL),
		zap.String("sku", primary.Sku),
		zap.Int("variants", len(products)-1),
	)
	return products, nil
}

func (r *Resolver) load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, resp, err := loadDocument(ctx, r.fetcher, pageURL)
	if err != nil {
		metrics.ObservePage(pageURL, "error", 0)
		return nil, err
	}
	metrics.ObservePage(pageURL, "success", len(resp.Body))
	return doc, nil
}

// variantLinks returns absolute variant URLs in document order, excluding the
// requested page itself.
func (r *Resolver) variantLinks(doc *goquery.Document, productURL string) []string {
	var links []string
	doc.Find(variantLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			r.logger.Debug("unparseable variant link", zap.String("href", href), zap.Error(err))
			return
		}
		abs := r.baseURL.ResolveReference(ref).String()
		if abs == productURL {
			return
		}
		links = append(links, abs)
	})
	return links
}
