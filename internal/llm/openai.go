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

const openaiProvider = "openai"

type OpenAIClient struct {
	httpClient *http.Client
	cfg        config.Config
}

func NewOpenAIClient(cfg config.Config) *OpenAIClient {
	return &OpenAIClient{httpClient: newHTTPClient(cfg, cfg.AttemptTimeout()), cfg: cfg}
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiReq struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openaiResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message to the chat completions
// endpoint and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", requestError(openaiProvider, "missing OpenAI API key - set OPENAI_API_KEY", ErrNoAPIKey)
	}
	model := c.cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	url := strings.TrimSuffix(endpoint, "/") + "/chat/completions"

	body := openaiReq{
		Model:     model,
		Messages:  []openaiMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", requestError(openaiProvider, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", requestError(openaiProvider, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(openaiProvider, resp.StatusCode, readErrorBody(resp.Body))
	}

	var or openaiResp
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", requestError(openaiProvider, "decode response", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	if len(or.Choices) == 0 || or.Choices[0].Message.Content == "" {
		return "", requestError(openaiProvider, "empty response", ErrInvalidResponse)
	}
	return or.Choices[0].Message.Content, nil
}
