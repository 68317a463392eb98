// Package metrics exposes Prometheus collectors for the crawl and transform service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal           *prometheus.CounterVec
	crawlerBytesTotal           *prometheus.CounterVec
	crawlerRequestsTotal        *prometheus.CounterVec
	crawlerVariantsSkippedTotal prometheus.Counter
	translationRequestsTotal    *prometheus.CounterVec
	transformsTotal             *prometheus.CounterVec
	productScore                prometheus.Histogram
	probeImageCount             prometheus.Histogram
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of product pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		crawlerBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		crawlerRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_requests_total",
				Help: "Crawl requests labeled by outcome (fetched, cache_hit, error).",
			},
			[]string{"outcome"},
		)

		crawlerVariantsSkippedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_variants_skipped_total",
				Help: "Variant pages left out of a product set because they failed to load.",
			},
		)

		translationRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translation_requests_total",
				Help: "Language-model translation calls, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		transformsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transform_products_total",
				Help: "Product transforms, labeled by status.",
			},
			[]string{"status"},
		)

		productScore = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transform_product_score",
				Help:    "Distribution of computed product quality scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		)

		probeImageCount = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transform_probe_image_count",
				Help:    "Image counts reported by the transform-time page probe.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 12, 20},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePage records a page fetch for the site of pageURL.
func ObservePage(pageURL string, status string, bytesFetched int) {
	Init()
	site := SanitizeSite(pageURL)
	crawlerPagesTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
}

// ObserveCrawl counts a crawl request by outcome.
func ObserveCrawl(outcome string) {
	Init()
	crawlerRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveVariantSkipped counts a variant dropped from a product set.
func ObserveVariantSkipped() {
	Init()
	crawlerVariantsSkippedTotal.Inc()
}

// ObserveTranslation counts a translation call.
func ObserveTranslation(kind, outcome string) {
	Init()
	translationRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveTransform counts a finished transform.
func ObserveTransform(status string) {
	Init()
	transformsTotal.WithLabelValues(status).Inc()
}

// ObserveScore records a computed product score.
func ObserveScore(score int) {
	Init()
	productScore.Observe(float64(score))
}

// ObserveProbeImages records the image count reported by the probe.
func ObserveProbeImages(count int) {
	Init()
	probeImageCount.Observe(float64(count))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
