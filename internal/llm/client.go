package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrEmptyResponse is returned when the endpoint answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// placeholderAPIKey is sent when no key is configured. Ollama ignores the
// header but the client refuses to send an empty bearer token.
const placeholderAPIKey = "ollama"

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:11434/v1.
	BaseURL string
	// APIKey is optional for local endpoints.
	APIKey string
	// Model is the chat model name.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// Timeout bounds a single request. Zero means no client-side limit.
	Timeout time.Duration
	// Logger receives request traces at Debug. Nil uses slog.Default().
	Logger *slog.Logger
}

// Client sends chat completions. It never retries: a failed request is
// returned to the caller as is.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
}

// New returns a Client for opts.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = placeholderAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(traceMiddleware(logger)),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &Client{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends msgs and returns the text content of the first choice.
func (c *Client) Complete(ctx context.Context, msgs []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toChatMessages(msgs),
		Temperature: openai.Float(c.temperature),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func traceMiddleware(logger *slog.Logger) option.Middleware {
	logger = logger.With("component", "llm")
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		requestID := strings.TrimSpace(req.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
			req.Header.Set("X-Request-Id", requestID)
		}

		logger.Debug("dispatching model request",
			"request_id", requestID,
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
		)

		resp, err := next(req)
		elapsed := time.Since(start)
		if err != nil {
			logger.Debug("model request failed",
				"request_id", requestID,
				"elapsed", elapsed,
				"error", err,
			)
			return resp, err
		}
		logger.Debug("model request finished",
			"request_id", requestID,
			"status", resp.StatusCode,
			"elapsed", elapsed,
		)
		return resp, nil
	}
}
