// Package openai implements a minimal client for OpenAI-compatible APIs:
// chat completions with JSON-schema constrained output (used for structured
// extraction and bio generation) and batch text embeddings.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SnoutAI/snout-mvp/pkg/resilience"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Usage is the token accounting reported by the API for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client talks to an OpenAI-compatible HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *resilience.Breaker
}

// New creates a Client. An empty baseURL falls back to the public API.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   90 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

// Schema names a strict JSON schema the model response must satisfy.
type Schema struct {
	Name   string
	Schema map[string]any
}

// ChatRequest is one structured-output chat call. ImageURLs, when present,
// are attached to the user message as image parts.
type ChatRequest struct {
	Model     string
	System    string
	User      string
	ImageURLs []string
	Schema    *Schema
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequestBody struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatResponseBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Chat performs a chat completion and returns the raw message content plus
// reported token usage. The caller is responsible for interpreting the
// content; Chat itself never retries.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, Usage, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	if len(req.ImageURLs) > 0 {
		parts := []contentPart{{Type: "text", Text: req.User}}
		for _, u := range req.ImageURLs {
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: u}})
		}
		messages = append(messages, chatMessage{Role: "user", Content: parts})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.User})
	}

	body := chatRequestBody{Model: req.Model, Messages: messages}
	if req.Schema != nil {
		body.ResponseFormat = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.Schema.Name,
				"strict": true,
				"schema": req.Schema.Schema,
			},
		}
	}

	var resp chatResponseBody
	if err := c.post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage, fmt.Errorf("openai: response has no choices")
	}
	return resp.Choices[0].Message.Content, resp.Usage, nil
}

type embedRequestBody struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponseBody struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}

// EmbedBatch embeds all texts in a single API round trip, returning vectors
// in input order.
func (c *Client) EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, Usage, error) {
	if len(texts) == 0 {
		return nil, Usage{}, nil
	}

	var resp embedResponseBody
	if err := c.post(ctx, "/embeddings", embedRequestBody{Model: model, Input: texts}, &resp); err != nil {
		return nil, Usage{}, err
	}
	if len(resp.Data) != len(texts) {
		return nil, resp.Usage, fmt.Errorf("openai: embedded %d of %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, resp.Usage, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, resp.Usage, nil
}

// post runs one API round trip through the client's circuit breaker: after
// repeated consecutive failures further calls fail fast with
// resilience.ErrCircuitOpen instead of queueing on a dead provider.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.breaker.Call(ctx, func(ctx context.Context) error {
		return c.doPost(ctx, path, in, out)
	})
}

func (c *Client) doPost(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("openai: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode %s response: %w", path, err)
	}
	return nil
}
