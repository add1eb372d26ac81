package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible chat-completions gateway
// (OpenRouter, OpenAI, or any proxy speaking the same wire format).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a gateway client. baseURL is the API root, e.g.
// "https://openrouter.ai/api/v1".
func NewClient(baseURL, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Per-call deadlines come from the request context; this is a
		// last-resort cap for calls issued without one.
		http: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *Client) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatPayload struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one chat-completion call and returns the raw text.
// A timeout or HTTP failure is returned as an error; the caller decides
// whether to drop, retry, or escalate.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return c.complete(ctx, req, nil)
}

// CompleteStructured sends one call with a provider-enforced JSON schema
// (response_format json_schema in the OpenAI wire format). The provider
// guarantees the content parses against the schema.
func (c *Client) CompleteStructured(ctx context.Context, req CompletionRequest, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	format, err := json.Marshal(map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   schemaName,
			"strict": true,
			"schema": json.RawMessage(schema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal response_format: %w", err)
	}
	text, err := c.complete(ctx, req, format)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

func (c *Client) complete(ctx context.Context, req CompletionRequest, responseFormat json.RawMessage) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(chatPayload{
		Model:          req.Model,
		Messages:       messages,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", req.Model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response for %s: %w", req.Model, err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("call %s: http %s: %s", req.Model, resp.Status, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response for %s: %w", req.Model, err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("call %s: gateway error: %s", req.Model, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("call %s: %w", req.Model, ErrEmptyCompletion)
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
