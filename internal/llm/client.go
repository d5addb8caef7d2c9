package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Provider identifiers accepted in configuration.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// Config holds the provider connection settings for a Client.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string // optional override, required for self-hosted Ollama
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Result holds a completion response with token usage.
type Result struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string // "stop", "length", etc.
}

// Client makes chat-completion calls against a configured provider.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a completion client, filling in defaults for unset fields.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Complete sends prompt to the configured provider and returns the response.
// Failures come back as a classified *Error.
func (c *Client) Complete(ctx context.Context, prompt string) (*Result, error) {
	if c.cfg.APIKey == "" && c.cfg.Provider != ProviderOllama {
		return nil, ClassifyError(
			fmt.Errorf("no API key available for provider %s", c.cfg.Provider),
			c.cfg.Provider, c.cfg.Model, http.StatusUnauthorized,
		)
	}

	reqBody := c.buildRequestBody(prompt)
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := c.apiURL()

	c.logger.Debug("making LLM API request",
		"provider", c.cfg.Provider,
		"model", c.cfg.Model,
		"api_url", apiURL,
		"prompt_length", len(prompt),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LLM API request failed", "provider", c.cfg.Provider, "error", err)
		return nil, ClassifyError(err, c.cfg.Provider, c.cfg.Model, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyError(fmt.Errorf("failed to read response: %w", err), c.cfg.Provider, c.cfg.Model, 0)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("LLM API error",
			"provider", c.cfg.Provider,
			"status_code", resp.StatusCode,
			"response", string(body),
		)
		return nil, ClassifyError(
			fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body)),
			c.cfg.Provider, c.cfg.Model, resp.StatusCode,
		)
	}

	result, err := c.parseResponse(body)
	if err != nil {
		return nil, ClassifyError(err, c.cfg.Provider, c.cfg.Model, 0)
	}

	if result.FinishReason == "length" {
		c.logger.Warn("LLM output truncated",
			"provider", c.cfg.Provider,
			"model", c.cfg.Model,
			"output_tokens", result.OutputTokens,
			"max_tokens", c.cfg.MaxTokens,
		)
	}

	return result, nil
}

func (c *Client) buildRequestBody(prompt string) map[string]any {
	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
	}
	// Ollama streams by default; everything here is a single-shot call
	if c.cfg.Provider == ProviderOllama {
		body["stream"] = false
	}
	return body
}

// apiURL returns the chat endpoint for the configured provider.
func (c *Client) apiURL() string {
	switch c.cfg.Provider {
	case ProviderAnthropic:
		return "https://api.anthropic.com/v1/messages"
	case ProviderOllama:
		baseURL := c.cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return baseURL + "/api/chat"
	case ProviderOpenRouter:
		return "https://openrouter.ai/api/v1/chat/completions"
	default:
		baseURL := c.cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return baseURL + "/v1/chat/completions"
	}
}

// setAuthHeaders sets the authentication headers the provider expects.
func (c *Client) setAuthHeaders(req *http.Request) {
	switch c.cfg.Provider {
	case ProviderAnthropic:
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	case ProviderOllama:
		// No auth needed
	default:
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// parseResponse extracts the text response and token usage from the
// provider's wire format.
func (c *Client) parseResponse(body []byte) (*Result, error) {
	switch c.cfg.Provider {
	case ProviderAnthropic:
		return parseAnthropicFormat(body)
	case ProviderOllama:
		return parseOllamaFormat(body)
	default:
		return parseOpenAIFormat(body)
	}
}

// parseOpenAIFormat parses OpenAI-compatible responses, used by OpenAI,
// OpenRouter and other compatible APIs.
func parseOpenAIFormat(body []byte) (*Result, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from LLM")
	}

	return &Result{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

func parseAnthropicFormat(body []byte) (*Result, error) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Anthropic response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("empty response from LLM")
	}

	result := &Result{
		Content:      resp.Content[0].Text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}

	// Normalize Anthropic's stop_reason to OpenAI-style finish_reason
	switch resp.StopReason {
	case "max_tokens":
		result.FinishReason = "length"
	case "end_turn", "stop_sequence":
		result.FinishReason = "stop"
	default:
		result.FinishReason = resp.StopReason
	}

	return result, nil
}

func parseOllamaFormat(body []byte) (*Result, error) {
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		DoneReason      string `json:"done_reason"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	return &Result{
		Content:      resp.Message.Content,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		FinishReason: resp.DoneReason,
	}, nil
}
