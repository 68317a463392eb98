package crawler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	mainURL     = "https://www.trendyol.com/marka/gomlek-p-100"
	variantURL1 = "https://www.trendyol.com/marka/gomlek-p-101"
	variantURL2 = "https://www.trendyol.com/marka/gomlek-p-102"
)

const productPage = `<html>
<head>
<script>window.__PRODUCT__={"sliderData":true,"imageUrl":"https:\/\/cdn.dsmcdn.com\/ty1\/prod\/a.jpg","image":"/ty1/prod/e.jpg","images":{"main":"x"}}</script>
<script>var tracking = {"image":"/ignored.jpg"};</script>
</head>
<body>
<div class="product-breadcrumb-wrapper"><span>Giyim</span><span> Erkek </span><span>Gömlek</span></div>
<h1 class="pr-new-br">  Slim Fit Gömlek  </h1>
<a class="product-brand-name-with-link">Marka</a>
<span class="prc-dsc">1.299,90 TL</span>
<div class="gallery-container">
  <img src="https://cdn.dsmcdn.com/mnresize/128/192/ty1/prod/a.jpg">
  <img data-src="https://cdn.dsmcdn.com/mnresize/1200/1800/ty1/prod/d.jpg">
  <img>
</div>
<div data-original="/ty1/prod/f.jpg"></div>
<a class="image-zoom" href="https://cdn.dsmcdn.com/ty1/prod/a.jpg">zoom</a>
<ul class="detail-attr-container">
  <li><span>Materyal</span><b>Pamuk</b></li>
  <li><span>Renk</span> Mavi</li>
  <li><span></span>orphan</li>
  <li><span>Boş</span></li>
</ul>
<div class="variant-list">
  <a href="/marka/gomlek-p-101">S</a>
  <a href="">empty</a>
  <a href="https://www.trendyol.com/marka/gomlek-p-102">M</a>
  <a href="/marka/gomlek-p-100">self</a>
</div>
</body>
</html>`

const variantPage = `<html><body>
<h1 class="product-name">Slim Fit Gömlek Beden</h1>
<span class="prc-dsc">999 TL</span>
<div class="product-slide"><img src="https://cdn.dsmcdn.com/ty1/prod/v.jpg"></div>
</body></html>`

type fakePage struct {
	status int
	body   string
	err    error
}

// fakeSite serves canned pages and counts fetches per URL.
type fakeSite struct {
	mu    sync.Mutex
	pages map[string]fakePage
	calls map[string]int
	order []string
	delay time.Duration
}

func newFakeSite(pages map[string]fakePage) *fakeSite {
	return &fakeSite{pages: pages, calls: make(map[string]int)}
}

func (s *fakeSite) Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error) {
	s.mu.Lock()
	s.calls[request.URL]++
	s.order = append(s.order, request.URL)
	page, ok := s.pages[request.URL]
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return FetchResponse{}, ctx.Err()
		}
	}
	if !ok {
		return FetchResponse{URL: request.URL, StatusCode: http.StatusNotFound}, nil
	}
	if page.err != nil {
		return FetchResponse{}, page.err
	}
	status := page.status
	if status == 0 {
		status = http.StatusOK
	}
	return FetchResponse{URL: request.URL, StatusCode: status, Body: []byte(page.body)}, nil
}

func (s *fakeSite) count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *fakeSite) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *fakeSite) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func defaultSite() *fakeSite {
	return newFakeSite(map[string]fakePage{
		mainURL:     {body: productPage},
		variantURL1: {body: variantPage},
		variantURL2: {body: variantPage},
	})
}
