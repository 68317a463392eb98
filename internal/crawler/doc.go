// Package crawler implements product page extraction: field and image
// extractors, the variant walk, the per-URL crawl cache, and the image-count
// probe used during transform.
package crawler
