// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/httputil"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// GenerationConfig holds sampling parameters sent with every completion.
type GenerationConfig struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultGeneration is the configuration used when none is given.
var DefaultGeneration = GenerationConfig{
	MaxTokens:   types.DefaultMaxTokens,
	Temperature: types.DefaultTemperature,
	TopP:        types.DefaultTopP,
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint. It
// holds no per-call state and is safe for concurrent use.
type ChatClient struct {
	HTTP    *http.Client
	APIBase string
	APIKey  string
	Model   string
	Gen     GenerationConfig
}

// chatRequest is the request body for POST /chat/completions.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewChatClient builds a client from cfg. When cfg.Model is empty the
// endpoint's first listed model is used; if listing fails the error is
// logged and requests go out without a model name.
func NewChatClient(ctx context.Context, cfg types.LLMConfig, logger zerolog.Logger) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultLLMTimeout
	}
	c := &ChatClient{
		HTTP:    &http.Client{Timeout: timeout},
		APIBase: strings.TrimRight(cfg.APIBase, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Gen: GenerationConfig{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
	}
	if c.APIBase == "" {
		c.APIBase = types.DefaultLLMAPIBase
	}
	if c.APIKey == "" {
		c.APIKey = types.DefaultLLMAPIKey
	}
	if c.Gen.MaxTokens <= 0 {
		c.Gen = DefaultGeneration
	}

	if c.Model != "" {
		logger.Info().Str("model", c.Model).Msg("using configured model")
		return c
	}
	model, err := c.ListModels(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("api_base", c.APIBase).Msg("could not resolve model from API")
		return c
	}
	c.Model = model
	logger.Info().Str("model", c.Model).Msg("connected to classification API")
	return c
}

func (c *ChatClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// ListModels returns the first model ID served by the endpoint.
func (c *ChatClient) ListModels(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBase+"/models", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing models: HTTP %d", resp.StatusCode)
	}
	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("decoding model list: %w", err)
	}
	if len(mr.Data) == 0 {
		return "", errors.New("endpoint lists no models")
	}
	return mr.Data[0].ID, nil
}

// Complete sends one system + user exchange and returns the reply text.
// 429 and 503 responses are retried with backoff.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.Gen.MaxTokens,
		Temperature: c.Gen.Temperature,
		TopP:        c.Gen.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completions returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("chat completions returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
