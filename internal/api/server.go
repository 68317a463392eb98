package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/config"
	"github.com/alibyilmaz/unimallaicase/internal/crawler"
	"github.com/alibyilmaz/unimallaicase/internal/id/uuid"
	"github.com/alibyilmaz/unimallaicase/internal/metrics"
	"github.com/alibyilmaz/unimallaicase/internal/transform"
)

const maxProductBody = 1 << 20

// RequestIDSource issues request IDs, reusing a forwarded one when usable.
type RequestIDSource interface {
	RequestID(forwarded string) string
}

// Server wires HTTP handlers to the crawl and transform services.
type Server struct {
	router      chi.Router
	crawler     crawler.Crawler
	transformer transform.Transformer
	ids         RequestIDSource
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	crawlerSvc crawler.Crawler,
	transformer transform.Transformer,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		crawler:     crawlerSvc,
		transformer: transformer,
		ids:         uuid.NewUUIDGenerator(),
		cfg:         cfg,
		logger:      logger,
	}
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(metrics.Middleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware(cfg.CORS))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(cfg.RequestTimeout()))
		if cfg.Auth.Enabled {
			r.Use(s.apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/api/product", func(r chi.Router) {
			r.Get("/crawl", s.crawlProduct)
			r.Get("/crawl-and-transform", s.crawlAndTransform)
			r.Post("/transform", s.transformProduct)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.crawler == nil || s.transformer == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) crawlProduct(w http.ResponseWriter, r *http.Request) {
	url, ok := s.productURL(w, r)
	if !ok {
		return
	}
	products, err := s.crawler.Crawl(r.Context(), url)
	if err != nil {
		s.logger.Error("crawl failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("url", url),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "crawling failed")
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(products))
}

func (s *Server) crawlAndTransform(w http.ResponseWriter, r *http.Request) {
	url, ok := s.productURL(w, r)
	if !ok {
		return
	}
	logger := s.logger.With(
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("url", url),
	)
	products, err := s.crawler.Crawl(r.Context(), url)
	if err != nil {
		logger.Error("crawl failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	if len(products) == 0 {
		s.writeError(w, http.StatusNotFound, "no products found")
		return
	}
	transformed, err := s.transformer.TransformAll(r.Context(), products)
	if err != nil {
		logger.Error("transform failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(transformed))
}

func (s *Server) transformProduct(w http.ResponseWriter, r *http.Request) {
	var product crawler.Product
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProductBody))
	if err := dec.Decode(&product); err != nil || product.Sku == "" {
		s.writeError(w, http.StatusBadRequest, "invalid product data")
		return
	}
	transformed, err := s.transformer.Transform(r.Context(), product)
	if err != nil {
		s.logger.Error("transform failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("sku", product.Sku),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "transformation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, transformed)
}

// productURL validates the url query parameter, writing a 400 on failure.
func (s *Server) productURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if err := crawler.ValidateProductURL(url, s.cfg.Crawler.SiteDomain); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid product url: "+err.Error())
		return "", false
	}
	return url, true
}

func nonNil(products []crawler.Product) []crawler.Product {
	if products == nil {
		return []crawler.Product{}
	}
	return products
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
