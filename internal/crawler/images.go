package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const galleryImageSelector = "div[class*='gallery-container'] img, " +
	"div[class*='product-slide'] img, " +
	"div[class*='base-product-image'] img"

var lowResSegments = strings.NewReplacer(
	"/mnresize/128/192/", "/",
	"/mnresize/1200/1800/", "/",
)

var scriptTokens = []string{"sliderData", "images", "productImages"}

var scriptImagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"imageUrl":"([^"]+)"`),
	regexp.MustCompile(`"images":\[(.*?)\]`),
	regexp.MustCompile(`"productImages":\[(.*?)\]`),
	regexp.MustCompile(`"images":(\{[^}]+\})`),
	regexp.MustCompile(`"image":"([^"]+)"`),
}

// imageStrategy contributes candidate image URLs from one part of a page.
type imageStrategy struct {
	name    string
	collect func(root *goquery.Selection, cdnOrigin string) []string
}

var imageStrategies = []imageStrategy{
	{name: "gallery", collect: galleryImages},
	{name: "script", collect: scriptImages},
	{name: "data-original", collect: dataOriginalImages},
	{name: "zoom", collect: zoomImages},
}

// ExtractImages runs every image strategy over root and returns the union of
// their results in first-seen order, without duplicates or empty entries.
func ExtractImages(root *goquery.Selection, cdnOrigin string, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := newOrderedSet()
	for _, strategy := range imageStrategies {
		found := strategy.collect(root, cdnOrigin)
		added := set.addAll(found)
		logger.Debug("image strategy finished",
			zap.String("strategy", strategy.name),
			zap.Int("found", len(found)),
			zap.Int("added", added),
		)
	}
	return set.items()
}

func galleryImages(root *goquery.Selection, _ string) []string {
	var out []string
	root.Find(galleryImageSelector).Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src == "" {
			return
		}
		out = append(out, lowResSegments.Replace(src))
	})
	return out
}

func scriptImages(root *goquery.Selection, cdnOrigin string) []string {
	var out []string
	root.Find("script").Each(func(_ int, script *goquery.Selection) {
		body := script.Text()
		if !containsAny(body, scriptTokens) {
			return
		}
		for _, pattern := range scriptImagePatterns {
			for _, m := range pattern.FindAllStringSubmatch(body, -1) {
				candidate := strings.ReplaceAll(m[1], `\/`, "/")
				if !strings.HasPrefix(candidate, "http") && !strings.HasPrefix(candidate, "/") {
					continue
				}
				out = append(out, withCDN(candidate, cdnOrigin))
			}
		}
	})
	return out
}

func dataOriginalImages(root *goquery.Selection, cdnOrigin string) []string {
	var out []string
	root.Find("[data-original]").Each(func(_ int, node *goquery.Selection) {
		if src := node.AttrOr("data-original", ""); src != "" {
			out = append(out, withCDN(src, cdnOrigin))
		}
	})
	return out
}

func zoomImages(root *goquery.Selection, cdnOrigin string) []string {
	var out []string
	root.Find("a[class*='zoom']").Each(func(_ int, node *goquery.Selection) {
		if href := node.AttrOr("href", ""); href != "" {
			out = append(out, withCDN(href, cdnOrigin))
		}
	})
	return out
}

func withCDN(raw, cdnOrigin string) string {
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return cdnOrigin + raw
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

type orderedSet struct {
	seen  map[string]struct{}
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) addAll(values []string) int {
	added := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.order = append(s.order, v)
		added++
	}
	return added
}

func (s *orderedSet) items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
