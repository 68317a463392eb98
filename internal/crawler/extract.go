package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCDNOrigin is prefixed onto relative image paths.
const DefaultCDNOrigin = "https://cdn.dsmcdn.com"

var skuPattern = regexp.MustCompile(`p-(\d+)`)

// Selector sets, tried in order. The first selector yielding a non-empty
// value wins for single-valued fields.
var (
	nameSelectors = []string{
		"h1[class*='pr-new-br']",
		"h1[class*='product-name']",
	}
	priceSelectors = []string{
		"span[class*='prc-dsc']",
	}
	brandSelectors = []string{
		"a[class*='product-brand-name-with-link']",
	}
	breadcrumbSelector = "div[class*='breadcrumb'] span"
	attributeSelector  = "ul[class*='detail-attr-container'] li"
)

// Extractor turns parsed product pages into Products.
type Extractor struct {
	cdnOrigin string
	logger    *zap.Logger
}

// NewExtractor builds an Extractor. An empty cdnOrigin uses DefaultCDNOrigin.
func NewExtractor(cdnOrigin string, logger *zap.Logger) *Extractor {
	if cdnOrigin == "" {
		cdnOrigin = DefaultCDNOrigin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cdnOrigin: strings.TrimRight(cdnOrigin, "/"),
		logger:    logger,
	}
}

// Extract populates a Product from doc. It never fails: a field whose
// extraction panics is logged and left empty.
func (e *Extractor) Extract(doc *goquery.Document, url string) Product {
	product := Product{
		Images:     []string{},
		Attributes: []ProductAttribute{},
	}
	root := doc.Selection

	e.guard(url, "sku", func() { product.Sku = ExtractSKU(url) })
	e.guard(url, "name", func() { product.Name = firstText(root, nameSelectors) })
	e.guard(url, "price", func() {
		if price, ok := parsePrice(firstText(root, priceSelectors)); ok {
			product.OriginalPrice = price
			product.DiscountedPrice = price
		}
	})
	e.guard(url, "brand", func() { product.Brand = firstText(root, brandSelectors) })
	e.guard(url, "category", func() { product.Category = extractCategory(root) })
	e.guard(url, "images", func() { product.Images = ExtractImages(root, e.cdnOrigin, e.logger) })
	e.guard(url, "attributes", func() { product.Attributes = extractAttributes(root) })

	e.logger.Info("extracted product info",
		zap.String("url", url),
		zap.String("sku", product.Sku),
		zap.Int("images", len(product.Images)),
		zap.Int("attributes", len(product.Attributes)),
	)
	return product
}

func (e *Extractor) guard(url, field string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("field extraction failed",
				zap.String("url", url),
				zap.String("field", field),
				zap.String("error", fmt.Sprint(rec)),
			)
		}
	}()
	fn()
}

// ExtractSKU returns the digit run following "p-" in url, or "" when absent.
func ExtractSKU(url string) string {
	m := skuPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func firstText(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		node := root.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

// parsePrice converts "1.299,90 TL" style text into a decimal.
func parsePrice(raw string) (decimal.Decimal, bool) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "TL", ""))
	if text == "" {
		return decimal.Zero, false
	}
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

func extractCategory(root *goquery.Selection) string {
	crumbs := root.Find(breadcrumbSelector)
	if crumbs.Length() == 0 {
		return ""
	}
	parts := make([]string, 0, crumbs.Length())
	crumbs.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})
	return strings.Join(parts, " > ")
}

func extractAttributes(root *goquery.Selection) []ProductAttribute {
	attrs := []ProductAttribute{}
	root.Find(attributeSelector).Each(func(_ int, item *goquery.Selection) {
		key := strings.TrimSpace(item.Find("span").First().Text())
		if key == "" {
			return
		}
		value := strings.TrimSpace(strings.ReplaceAll(item.Text(), key, ""))
		if value == "" {
			return
		}
		attrs = append(attrs, ProductAttribute{Key: key, Name: value})
	})
	return attrs
}
