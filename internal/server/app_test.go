package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alibyilmaz/unimallaicase/internal/config"
	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

const mainPage = `<html><body>
<div class="product-breadcrumb-wrapper"><span>Giyim</span><span>Gömlek</span></div>
<h1 class="pr-new-br">Slim Fit Gömlek</h1>
<a class="product-brand-name-with-link">Marka</a>
<span class="prc-dsc">249,90 TL</span>
<div class="gallery-container">
  <img src="https://cdn.dsmcdn.com/ty1/prod/a.jpg">
  <img src="https://cdn.dsmcdn.com/ty1/prod/b.jpg">
</div>
<ul class="detail-attr-container">
  <li><span>Materyal</span><b>Pamuk</b></li>
</ul>
<div class="variant-list"><a href="/marka/gomlek-p-101">M</a></div>
</body></html>`

const variantPage = `<html><body>
<h1 class="product-name">Slim Fit Gömlek M</h1>
<span class="prc-dsc">199 TL</span>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/marka/gomlek-p-100", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(mainPage))
	})
	mux.HandleFunc("/marka/gomlek-p-101", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(variantPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newLLM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) < 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		content := `{"name":"Slim Fit Shirt","description":"","brand":"Marka","category":"Clothing"}`
		if strings.Contains(req.Messages[1].Content, "Attributes to translate") {
			content = `{"attributes":[{"key":"Material","name":"Cotton"}]}`
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadWithEnvFiles("")
	require.NoError(t, err)
	cfg.Server.ShutdownTimeoutSeconds = 2
	return cfg
}

func TestBuildServesCrawlAndTransform(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	llm := newLLM(t)
	cfg := testConfig(t)
	cfg.Crawler.SiteDomain = "127.0.0.1"
	cfg.Crawler.BaseURL = site.URL
	cfg.LLM.BaseURL = llm.URL + "/v1"
	cfg.LLM.APIKey = "test-key"

	app, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })

	productURL := site.URL + "/marka/gomlek-p-100"
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/product/crawl-and-transform?url="+productURL, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var products []crawler.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 2)
	require.Equal(t, "100", products[0].Sku)
	require.Equal(t, "Slim Fit Shirt", products[0].Name)
	require.Equal(t, []crawler.ProductAttribute{{Key: "Material", Name: "Cotton"}}, products[0].Attributes)
	require.Equal(t, "101", products[1].Sku)
	require.Equal(t, "100", products[1].ParentSku)

	var wire []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wire))
	for _, field := range []string{"originalPrice", "discountedPrice"} {
		var price float64
		require.NoError(t, json.Unmarshal(wire[0][field], &price), field)
	}
	for _, p := range products {
		require.NotNil(t, p.Score)
		require.GreaterOrEqual(t, *p.Score, 0)
		require.LessOrEqual(t, *p.Score, 100)
	}

	// The crawl is cached; the raw products are untranslated.
	require.Equal(t, 1, app.Crawler().CacheSize())
	raw, err := app.Crawler().Crawl(context.Background(), productURL)
	require.NoError(t, err)
	require.Equal(t, "Slim Fit Gömlek", raw[0].Name)
	require.Nil(t, raw[0].Score)
}

func TestBuildSelectsFetcherBackend(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{config.BackendColly, config.BackendHeadless, config.BackendAuto} {
		cfg := testConfig(t)
		cfg.Fetcher.Backend = backend

		app, err := Build(context.Background(), cfg, nil)
		require.NoError(t, err, backend)
		require.Equal(t, backend != config.BackendColly, app.headless != nil, backend)
		app.Close(context.Background())
		require.Nil(t, app.headless)
	}
}

func TestBuildRejectsBadLLMBaseURL(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.LLM.BaseURL = "not a url"
	_, err := Build(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "translator init failed")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	app, err := Build(context.Background(), testConfig(t), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test helper
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
