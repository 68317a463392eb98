package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "test-key",
		Temperature: DefaultTemperature,
		Timeout:     5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

func writeContent(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func sampleProduct() crawler.Product {
	return crawler.Product{
		Name:        "Erkek Gömlek",
		Description: "Pamuklu gömlek",
		Sku:         "123",
		Brand:       "Marka",
		Category:    "Giyim > Gömlek",
	}
}

func TestTranslateMainSendsChatCompletionRequest(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, DefaultModel, req.Model)
		require.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.InDelta(t, DefaultTemperature, req.Temperature, 1e-9)
		require.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Contains(t, req.Messages[1].Content, "Name: Erkek Gömlek")
		require.Contains(t, req.Messages[1].Content, "Category: Giyim > Gömlek")

		writeContent(t, w, `{"name":"Men's Shirt","description":"Cotton shirt","brand":"Brand","category":"Clothing > Shirt"}`)
	})

	fields, err := c.TranslateMain(context.Background(), sampleProduct())
	require.NoError(t, err)
	require.Equal(t, MainFields{
		Name:        "Men's Shirt",
		Description: "Cotton shirt",
		Brand:       "Brand",
		Category:    "Clothing > Shirt",
	}, fields)
}

func TestTranslateMainNullAndNonStringValues(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeContent(t, w, `{"name":"Shirt","description":null,"brand":42,"category":"c"}`)
	})

	fields, err := c.TranslateMain(context.Background(), sampleProduct())
	require.NoError(t, err)
	require.Equal(t, MainFields{Name: "Shirt", Description: "", Brand: "42", Category: "c"}, fields)
}

func TestTranslateMainFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		op      string
		status  int
		message string
	}{
		{
			name: "content not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeContent(t, w, "Here is your translation: Men's Shirt")
			},
			op: "content",
		},
		{
			name: "missing key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeContent(t, w, `{"name":"Shirt","description":"d","brand":"b"}`)
			},
			op:      "content",
			message: "category",
		},
		{
			name: "error status with message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
			},
			op:      "status",
			status:  http.StatusUnauthorized,
			message: "Incorrect API key provided",
		},
		{
			name: "error status without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			op:      "status",
			status:  http.StatusServiceUnavailable,
			message: "Service Unavailable",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			op: "decode",
		},
		{
			name: "body not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway</html>`))
			},
			op: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, tt.handler)
			_, err := c.TranslateMain(context.Background(), sampleProduct())
			require.Error(t, err)

			var te *TranslationError
			require.ErrorAs(t, err, &te)
			require.Equal(t, tt.op, te.Op)
			require.Equal(t, tt.status, te.StatusCode)
			if tt.message != "" {
				require.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestTranslateMainTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.TranslateMain(context.Background(), sampleProduct())
	require.True(t, IsTranslationError(err))
}

func TestTranslateMainMissingFieldSentinel(t *testing.T) {
	t.Parallel()

	_, err := parseMainFields(`{"name":"a"}`)
	require.ErrorIs(t, err, ErrMissingField)

	fields, err := parseMainFields(`{"name":"a","description":"b","brand":7,"category":""}`)
	require.NoError(t, err)
	require.Equal(t, "7", fields.Brand)
	require.Empty(t, fields.Category)
}

func TestTranslateAttributes(t *testing.T) {
	t.Parallel()

	original := []crawler.ProductAttribute{
		{Key: "Materyal", Name: "Pamuk"},
		{Key: "Renk", Name: "Mavi"},
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []crawler.ProductAttribute
	}{
		{
			name: "translated",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var req chatRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				require.Contains(t, req.Messages[1].Content, "Materyal: Pamuk\nRenk: Mavi")
				writeContent(t, w, `{"attributes":[{"key":"Material","name":"Cotton"},{"key":"Color","name":"Blue"}]}`)
			},
			want: []crawler.ProductAttribute{
				{Key: "Material", Name: "Cotton"},
				{Key: "Color", Name: "Blue"},
			},
		},
		{
			name: "content not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeContent(t, w, "Material: Cotton")
			},
			want: original,
		},
		{
			name: "empty list",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeContent(t, w, `{"attributes":[]}`)
			},
			want: original,
		},
		{
			name: "bare array",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeContent(t, w, `[{"key":"Material","name":"Cotton"}]`)
			},
			want: original,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusTooManyRequests)
			},
			want: original,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, tt.handler)
			got := c.TranslateAttributes(context.Background(), original)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateAttributesEmptyInputSkipsCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	})

	got := c.TranslateAttributes(context.Background(), nil)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Zero(t, calls.Load())
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{BaseURL: "not-a-url"}, nil)
	require.Error(t, err)

	c, err := NewClient(Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL+"/chat/completions", c.endpoint)
	require.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c, err = NewClient(Config{BaseURL: "https://llm.internal/v1/"}, nil)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(c.endpoint, "/v1/chat/completions"))
}
