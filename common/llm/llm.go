package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Client is the generation capability the inference layer consumes.
// It returns raw text plus call metadata; parsing and validation of the
// content are deliberately someone else's job (internal/validation).
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Request is one structured-output generation call. Model may override the
// client default; the fallback retry strategy relies on that.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       any
	Model        string
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
	Seed         *int64
}

// Response carries the raw generated text and call metadata for the audit
// trail. Content is not guaranteed to be valid JSON, let alone valid output.
type Response struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// TransientError marks infrastructure-level generation failures: rate
// limits, server errors, network failures. The retry engine escalates on
// them exactly as on validation hard-fails but tags them separately.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient generation error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient generation error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GenerateSchema reflects a strict JSON schema from T for structured output.
// AllowAdditionalProperties is off so the provider enforces the closed world
// at generation time; the validation pipeline re-checks it regardless.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Temp returns a pointer to t, for Request.Temperature.
func Temp(t float64) *float64 {
	return &t
}
