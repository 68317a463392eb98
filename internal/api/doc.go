// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /api/product/crawl?url= returns the product and its variants.
//   - GET /api/product/crawl-and-transform?url= crawls then translates and
//     scores every product.
//   - POST /api/product/transform translates and scores one product.
//   - GET /healthz and /readyz for probes, /metrics for Prometheus.
package api
