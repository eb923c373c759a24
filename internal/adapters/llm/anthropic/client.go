// Package anthropic implements a generation backend over the Anthropic
// Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/randomtoy/arcana-go/internal/domain"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Backend calls the Messages API with a fixed model. Implements
// ports.GenerationBackend.
type Backend struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	name       string
	model      string
	maxTokens  int
}

// NewBackend builds the backend. baseURL is overridable for tests; pass ""
// for the production endpoint.
func NewBackend(httpClient *http.Client, apiKey, baseURL, name, model string, maxTokens int) *Backend {
	if baseURL == "" {
		baseURL = apiURL
	}
	if maxTokens <= 0 {
		maxTokens = 1200
	}
	return &Backend{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    baseURL,
		name:       name,
		model:      model,
		maxTokens:  maxTokens,
	}
}

// Name identifies the backend in provenance and telemetry.
func (b *Backend) Name() string { return b.name }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate runs the bundle through the Messages API.
func (b *Backend) Generate(ctx context.Context, bundle domain.PromptBundle) (string, error) {
	reqBody := request{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System:    bundle.System,
		Messages: []message{
			{Role: "user", Content: bundle.User},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend %s status %d: %s", b.name, resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("backend %s: empty response", b.name)
	}

	text := strings.TrimSpace(apiResp.Content[0].Text)
	if text == "" {
		return "", fmt.Errorf("backend %s: empty narrative", b.name)
	}
	return text, nil
}
