// Package translate talks to a chat-completion endpoint to translate product
// text. Main fields fail hard; attributes fall back to the input.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
	"github.com/alibyilmaz/unimallaicase/internal/metrics"
)

// Defaults for the chat-completion request.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo-1106"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 500
	DefaultTimeout     = 30 * time.Second

	completionsPath = "chat/completions"
	maxErrorBody    = 64 << 10
)

var mainKeys = []string{"name", "description", "brand", "category"}

// Config configures the chat-completion client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// MainFields holds the translated identity text of a product.
type MainFields struct {
	Name        string
	Description string
	Brand       string
	Category    string
}

// Client issues translation requests.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	MaxTokens      int            `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient builds a Client, filling zero config values with defaults.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse llm base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("llm base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		endpoint:   base.JoinPath(completionsPath).String(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// TranslateMain translates name, description, brand and category. Every
// failure is returned as *TranslationError.
func (c *Client) TranslateMain(ctx context.Context, p crawler.Product) (MainFields, error) {
	content, err := c.complete(ctx, mainSystemPrompt, mainPrompt(p))
	if err != nil {
		metrics.ObserveTranslation("main", "error")
		c.logger.Error("main translation failed", zap.String("sku", p.Sku), zap.Error(err))
		return MainFields{}, err
	}

	fields, err := parseMainFields(content)
	if err != nil {
		metrics.ObserveTranslation("main", "error")
		c.logger.Error("main translation response rejected",
			zap.String("sku", p.Sku),
			zap.String("content", content),
			zap.Error(err),
		)
		return MainFields{}, err
	}
	metrics.ObserveTranslation("main", "success")
	return fields, nil
}

// TranslateAttributes translates attribute pairs. It never fails: on any
// problem the input is returned unchanged.
func (c *Client) TranslateAttributes(ctx context.Context, attrs []crawler.ProductAttribute) []crawler.ProductAttribute {
	if len(attrs) == 0 {
		return []crawler.ProductAttribute{}
	}
	c.logger.Info("translating attributes", zap.Int("count", len(attrs)))

	content, err := c.complete(ctx, attributesSystemPrompt, attributesPrompt(attrs))
	if err != nil {
		metrics.ObserveTranslation("attributes", "fallback")
		c.logger.Warn("attribute translation failed, keeping originals", zap.Error(err))
		return attrs
	}

	var parsed struct {
		Attributes []crawler.ProductAttribute `json:"attributes"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		metrics.ObserveTranslation("attributes", "fallback")
		c.logger.Warn("attribute translation not valid JSON, keeping originals",
			zap.String("content", content),
			zap.Error(err),
		)
		return attrs
	}
	if len(parsed.Attributes) == 0 {
		metrics.ObserveTranslation("attributes", "fallback")
		c.logger.Warn("no attributes were translated, keeping originals", zap.String("content", content))
		return attrs
	}
	metrics.ObserveTranslation("attributes", "success")
	return parsed.Attributes
}

// complete posts one chat-completion request and returns the assistant content.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
		MaxTokens:      c.cfg.MaxTokens,
	})
	if err != nil {
		return "", &TranslationError{Op: "request", Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TranslationError{Op: "request", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	c.logger.Debug("sending chat completion request", zap.String("endpoint", c.endpoint))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranslationError{Op: "request", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &TranslationError{
			Op:         "status",
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(raw, resp.StatusCode)),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &TranslationError{Op: "decode", Err: fmt.Errorf("decode completion: %w", err)}
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", &TranslationError{Op: "decode", Err: errors.New("response was empty or in unexpected format")}
	}
	return decoded.Choices[0].Message.Content, nil
}

func errorMessage(raw []byte, status int) string {
	var decoded errorResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func parseMainFields(content string) (MainFields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return MainFields{}, &TranslationError{Op: "content", Err: fmt.Errorf("content is not valid JSON: %w", err)}
	}
	values := make(map[string]string, len(mainKeys))
	for _, key := range mainKeys {
		value, ok := raw[key]
		if !ok {
			return MainFields{}, &TranslationError{Op: "content", Err: fmt.Errorf("%w: %s", ErrMissingField, key)}
		}
		values[key] = rawText(value)
	}
	return MainFields{
		Name:        values["name"],
		Description: values["description"],
		Brand:       values["brand"],
		Category:    values["category"],
	}, nil
}

// rawText returns the string value of a JSON string, empty text for null, or
// the literal JSON text for any other value.
func rawText(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(value))
}
