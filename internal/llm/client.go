package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com/v1"

var ErrEmptyCompletion = errors.New("llm returned no content")

// LLMClient define la interfaz para generar respuestas con un LLM.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options ajusta cada completion. Los valores cero usan el default del proveedor.
type Options struct {
	SystemPrompt string
	Temperature  *float64
	MaxTokens    int
	Timeout      time.Duration
}

// HTTPClient habla con un endpoint /chat/completions compatible con OpenAI
// y pide siempre una respuesta en formato JSON.
type HTTPClient struct {
	endpoint string
	apiKey   string
	model    string
	opts     Options
	client   *http.Client
	logger   *zap.Logger
}

func NewHTTPClient(baseURL, apiKey, model string, opts Options, logger *zap.Logger) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		endpoint: baseURL + "/chat/completions",
		apiKey:   apiKey,
		model:    model,
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		logger:   logger,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion: %w", err)
	}
	c.logger.Debug("llm completion",
		zap.String("model", c.model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var parsed completionResponse
	// Los errores del proveedor tambien vienen como JSON; se intenta decodificar antes de mirar el status.
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := ""
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		c.logger.Warn("llm error response", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode completion: %w", decodeErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm api error: %s", parsed.Error.Message)
	}
	for _, choice := range parsed.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", ErrEmptyCompletion
}

func (c *HTTPClient) buildRequest(prompt string) completionRequest {
	messages := make([]message, 0, 2)
	if c.opts.SystemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: c.opts.SystemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: prompt})
	return completionRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.opts.Temperature,
		MaxTokens:      c.opts.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
