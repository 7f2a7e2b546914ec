// Package ollama adapts an Ollama-compatible HTTP endpoint to the
// completion-service port, with retry and circuit-breaking around each call.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ivankhr/memogen/internal/core/ports"
	"github.com/ivankhr/memogen/internal/infrastructure/resilience"
)

type Client struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	executor     *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, defaultModel string) *Client {
	return NewWithOptions(baseURL, defaultModel, Options{})
}

func NewWithOptions(baseURL, defaultModel string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
		executor:     options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete performs one chat completion. Temperature and max tokens map onto
// Ollama generation options; a zero model falls back to the configured
// default.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	payload := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
		"options":  options,
	}

	var response struct {
		Message chatMessage `json:"message"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/chat", payload, &response, "chat")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.chat", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat completion", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}
