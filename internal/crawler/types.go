package crawler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is one listing or variant extracted from a product page.
type Product struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Sku             string             `json:"sku"`
	ParentSku       string             `json:"parentSku"`
	Category        string             `json:"category"`
	Brand           string             `json:"brand"`
	OriginalPrice   decimal.Decimal    `json:"originalPrice"`
	DiscountedPrice decimal.Decimal    `json:"discountedPrice"`
	URL             string             `json:"url"`
	Images          []string           `json:"images"`
	Score           *int               `json:"score,omitempty"`
	Attributes      []ProductAttribute `json:"attributes"`
}

// ProductAttribute is a labelled attribute pair: Key is the label, Name the value.
type ProductAttribute struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	cp := p
	cp.Images = cloneStrings(p.Images)
	if p.Attributes != nil {
		cp.Attributes = make([]ProductAttribute, len(p.Attributes))
		copy(cp.Attributes, p.Attributes)
	}
	if p.Score != nil {
		score := *p.Score
		cp.Score = &score
	}
	return cp
}

// CloneProducts deep-copies a product list.
func CloneProducts(src []Product) []Product {
	if src == nil {
		return nil
	}
	out := make([]Product, len(src))
	for i, p := range src {
		out[i] = p.Clone()
	}
	return out
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
