package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/ai"
	"github.com/frostdev-ops/ranalyzer-go/internal/config"
)

// OpenAIProvider implements the Provider interface against the OpenAI
// chat completions API.
type OpenAIProvider struct {
	name      string
	client    *http.Client
	logger    *logrus.Logger
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg config.AIConfig, logger *logrus.Logger) *OpenAIProvider {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	timeout := 60 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return &OpenAIProvider{
		name:      "openai",
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		maxTokens: maxTokens,
	}
}

// GetName returns the provider name
func (o *OpenAIProvider) GetName() string {
	return o.name
}

// IsAvailable checks if the provider can be used.
func (o *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	return o.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a single chat completion request. Temperature is kept
// low so answers about the same analysis stay consistent.
func (o *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if o.apiKey == "" {
		return "", &ai.ProviderError{
			Provider: o.name,
			Type:     "auth",
			Message:  "OpenAI API key is not configured",
		}
	}

	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.3,
		MaxTokens:   o.maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", &ai.ProviderError{
			Provider: o.name,
			Type:     "network",
			Message:  err.Error(),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", &ai.ProviderError{
			Provider: o.name,
			Type:     "api",
			Message:  msg,
		}
	}

	if len(parsed.Choices) == 0 {
		return "", &ai.ProviderError{
			Provider: o.name,
			Type:     "api",
			Message:  "response contained no choices",
		}
	}

	o.logger.WithFields(logrus.Fields{
		"provider": o.name,
		"model":    o.model,
		"duration": time.Since(start).String(),
	}).Debug("completion request finished")

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
