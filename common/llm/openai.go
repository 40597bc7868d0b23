package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiClient struct {
	openai openai.Client
	cfg    Config
}

// New creates a Client backed by an OpenAI-compatible chat completions API.
// BaseURL may point at any compatible endpoint, including self-hosted
// inference servers.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	return &openaiClient{
		openai: openai.NewClient(opts...),
		cfg:    cfg,
	}, nil
}

func (c *openaiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        req.SchemaName,
		Description: openai.String("Structured response schema"),
		Schema:      req.Schema,
		Strict:      openai.Bool(true),
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		openai.UserMessage(req.UserPrompt),
	}

	params := openai.ChatCompletionNewParams{
		Model:     model,
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = Temp(c.cfg.Temperature)
	}
	params.Temperature = openai.Float(*temperature)
	if req.Seed != nil {
		params.Seed = openai.Int(*req.Seed)
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, classify(ctx, err)
	}

	slog.DebugContext(ctx, "generation completed",
		"model", model,
		"duration_ms", latency.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, &TransientError{Err: fmt.Errorf("no choices in response")}
	}

	choice := resp.Choices[0]
	return &Response{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		LatencyMS:        latency.Milliseconds(),
	}, nil
}

func (c *openaiClient) Model() string {
	return c.cfg.Model
}

// classify maps provider errors onto the taxonomy the retry engine expects:
// rate limits, 5xx and network failures are transient; context cancellation
// passes through untouched so the engine can unwind cleanly.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			slog.WarnContext(ctx, "generation rate limited", "status_code", apiErr.StatusCode)
			return &TransientError{StatusCode: apiErr.StatusCode, Err: err}
		case apiErr.StatusCode >= 500:
			slog.WarnContext(ctx, "generation server error", "status_code", apiErr.StatusCode)
			return &TransientError{StatusCode: apiErr.StatusCode, Err: err}
		default:
			slog.ErrorContext(ctx, "generation client error",
				"status_code", apiErr.StatusCode,
				"error_type", apiErr.Type,
				"error_code", apiErr.Code)
			return fmt.Errorf("generation request rejected: %w", err)
		}
	}

	// No API response at all: network-level failure.
	slog.WarnContext(ctx, "generation network error", "error", err)
	return &TransientError{Err: err}
}
