// Package detector decides when a product page needs a browser render.
package detector

import (
	"bytes"
	"strings"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

// DefaultProductMarkers are class names present on a server-rendered product page.
var DefaultProductMarkers = []string{"pr-new-br", "product-name", "prc-dsc"}

// Heuristic promotes pages that look like an unrendered JavaScript shell.
type Heuristic struct {
	BodyLengthThreshold int
	ProductMarkers      [][]byte
}

// NewHeuristic creates a new detector. Empty markers use DefaultProductMarkers.
func NewHeuristic(threshold int, markers []string) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	if len(markers) == 0 {
		markers = DefaultProductMarkers
	}
	h := &Heuristic{BodyLengthThreshold: threshold}
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m != "" {
			h.ProductMarkers = append(h.ProductMarkers, []byte(m))
		}
	}
	return h
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(resp crawler.FetchResponse) bool {
	if resp.StatusCode != 200 {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range h.ProductMarkers {
		if bytes.Contains(body, marker) {
			return false
		}
	}
	return len(h.ProductMarkers) > 0
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Unterminated tag: the rest of the document counts as script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
