package retry

import (
	"math"
	"time"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/prompt"
)

// Strategy names as recorded in attempt history and metrics.
const (
	StrategyStandard = "standard"
	StrategyShrink   = "shrink"
	StrategyFallback = "fallback"
)

// Strategy describes one rung of the escalation ladder: how many
// attempts it gets, which request and model each attempt uses, and how
// long to wait before a retry.
type Strategy interface {
	Name() string
	MaxAttempts() int

	// Prepare derives the request this strategy's attempts answer.
	// Most strategies return req unchanged.
	Prepare(req *model.TriageRequest) *model.TriageRequest

	// Model returns the model override for the given attempt, or ""
	// for the configured default.
	Model(attempt int) string

	// Backoff returns the wait before the given attempt. Attempt 0
	// never waits.
	Backoff(attempt int) time.Duration
}

// standard retries the unmodified request with exponential backoff.
type standard struct {
	attempts int
	base     float64
}

func NewStandard(attempts int, backoffBase float64) Strategy {
	return &standard{attempts: attempts, base: backoffBase}
}

func (s *standard) Name() string     { return StrategyStandard }
func (s *standard) MaxAttempts() int { return s.attempts }
func (s *standard) Model(int) string { return "" }

func (s *standard) Prepare(req *model.TriageRequest) *model.TriageRequest { return req }

func (s *standard) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(s.base * math.Pow(2, float64(attempt)) * float64(time.Second))
}

// shrink answers a reduced request: truncated body, fewer candidates.
// A smaller context often clears persistent format failures.
type shrink struct {
	attempts  int
	base      float64
	bodyLimit int
	topN      int
}

func NewShrink(attempts int, backoffBase float64, bodyLimit, topN int) Strategy {
	return &shrink{attempts: attempts, base: backoffBase, bodyLimit: bodyLimit, topN: topN}
}

func (s *shrink) Name() string     { return StrategyShrink }
func (s *shrink) MaxAttempts() int { return s.attempts }
func (s *shrink) Model(int) string { return "" }

func (s *shrink) Prepare(req *model.TriageRequest) *model.TriageRequest {
	return prompt.ShrinkRequest(req, s.bodyLimit, s.topN)
}

func (s *shrink) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(s.base * math.Pow(2, float64(attempt)) * float64(time.Second))
}

// fallback tries each alternate model once, in order. With no models
// configured it contributes zero attempts.
type fallback struct {
	models []string
}

func NewFallback(models []string) Strategy {
	return &fallback{models: models}
}

func (f *fallback) Name() string     { return StrategyFallback }
func (f *fallback) MaxAttempts() int { return len(f.models) }

func (f *fallback) Model(attempt int) string {
	if attempt < 0 || attempt >= len(f.models) {
		return ""
	}
	return f.models[attempt]
}

func (f *fallback) Prepare(req *model.TriageRequest) *model.TriageRequest { return req }
func (f *fallback) Backoff(int) time.Duration                             { return 0 }
