package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"genweb/internal/config"
)

const (
	anthropicProvider = "anthropic"
	anthropicVersion  = "2023-06-01"
)

type AnthropicClient struct {
	httpClient *http.Client
	cfg        config.Config
}

func NewAnthropicClient(cfg config.Config) *AnthropicClient {
	return &AnthropicClient{httpClient: newHTTPClient(cfg, cfg.AttemptTimeout()), cfg: cfg}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicReq struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends prompt as a single user message and returns the text of
// the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.cfg.AnthropicAPIKey == "" {
		return "", requestError(anthropicProvider, "missing Anthropic API key - set ANTHROPIC_API_KEY", ErrNoAPIKey)
	}
	model := c.cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com/v1"
	}
	url := strings.TrimSuffix(endpoint, "/") + "/messages"

	body := anthropicReq{Model: model, MaxTokens: maxTokens}
	body.Messages = []anthropicMessage{{Role: "user", Content: prompt}}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", requestError(anthropicProvider, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.AnthropicAPIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", requestError(anthropicProvider, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(anthropicProvider, resp.StatusCode, readErrorBody(resp.Body))
	}

	var ar anthropicResp
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", requestError(anthropicProvider, "decode response", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}

	var text strings.Builder
	for _, block := range ar.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", requestError(anthropicProvider, "empty response", ErrInvalidResponse)
	}
	return text.String(), nil
}
