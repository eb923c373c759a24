// Package openrouter implements generation, scoring, and embedding clients
// over the OpenRouter OpenAI-compatible API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

// Client is a thin chat-completions client. Backend, Scorer, and Embedder
// wrap it with their request shapes.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	logger     *slog.Logger
}

// NewClient builds a client against the given base URL.
func NewClient(httpClient *http.Client, apiKey, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// chatRequest / chatResponse mirror the OpenAI-compatible API shapes.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Backend is a generation backend bound to one model. The orchestrator
// holds several Backends in priority order.
type Backend struct {
	client    *Client
	name      string
	model     string
	maxTokens int
}

// NewBackend wraps the client as a named generation backend.
func NewBackend(client *Client, name, model string, maxTokens int) *Backend {
	if maxTokens <= 0 {
		maxTokens = 1200
	}
	return &Backend{client: client, name: name, model: model, maxTokens: maxTokens}
}

// Name identifies the backend in provenance and telemetry.
func (b *Backend) Name() string { return b.name }

// Generate runs the bundle through the model and returns the narrative.
func (b *Backend) Generate(ctx context.Context, bundle domain.PromptBundle) (string, error) {
	text, err := b.client.chat(ctx, b.model, bundle.System, bundle.User, b.maxTokens)
	if err != nil {
		return "", fmt.Errorf("backend %s: %w", b.name, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("backend %s: empty narrative", b.name)
	}
	return text, nil
}
