// Package retry escalates failed triage attempts through a fixed
// ladder of strategies: standard retries with backoff, a shrunk
// request, then alternate models. The ladder never loops back.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/llm"
	"github.com/Kepler9870u0987/TT-InferenceLayer/common/logger"
	"github.com/Kepler9870u0987/TT-InferenceLayer/common/metrics"
	"github.com/Kepler9870u0987/TT-InferenceLayer/core/config"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Outcome is one validated triage attempt. Request is the request the
// attempt actually answered, which differs from the caller's request
// under the shrink strategy.
type Outcome struct {
	Response   *model.TriageResponse
	Warnings   []string
	Generation model.GenerationMetadata
	Request    *model.TriageRequest
}

// Generator performs a single generate-and-validate attempt. The model
// override is empty for the configured default.
type Generator interface {
	Attempt(ctx context.Context, req *model.TriageRequest, modelOverride string) (*Outcome, error)
}

type Engine struct {
	gen          Generator
	defaultModel string
	strategies   []Strategy
}

func NewEngine(gen Generator, cfg config.RetryConfig, defaultModel string, fallbackModels []string) *Engine {
	return &Engine{
		gen:          gen,
		defaultModel: defaultModel,
		strategies: []Strategy{
			NewStandard(cfg.MaxRetries, cfg.BackoffBase),
			NewShrink(cfg.ShrinkRetries, cfg.BackoffBase, cfg.ShrinkBodyLimit, cfg.ShrinkTopN),
			NewFallback(fallbackModels),
		},
	}
}

// NewEngineWithStrategies exists for tests that need a custom ladder.
func NewEngineWithStrategies(gen Generator, strategies ...Strategy) *Engine {
	return &Engine{gen: gen, strategies: strategies}
}

// Run drives the ladder until an attempt validates, the context is
// cancelled, or every strategy is spent. Transient provider errors
// consume an attempt from the current strategy like any other failure
// but are tagged separately in the history. The returned Metadata is
// complete in every case.
func (e *Engine) Run(ctx context.Context, req *model.TriageRequest) (*Outcome, Metadata, error) {
	var meta Metadata
	var lastErr error

	for _, strat := range e.strategies {
		prepared := strat.Prepare(req)

		for attempt := 0; attempt < strat.MaxAttempts(); attempt++ {
			if err := e.wait(ctx, strat.Backoff(attempt)); err != nil {
				return nil, meta, err
			}

			lctx := logger.WithLogFields(ctx, logger.LogFields{
				Strategy: logger.Ptr(strat.Name()),
				Attempt:  logger.Ptr(attempt),
			})

			start := time.Now()
			out, err := e.gen.Attempt(lctx, prepared, strat.Model(attempt))
			elapsed := time.Since(start)

			if err == nil {
				meta = meta.Append(model.AttemptRecord{
					Strategy: strat.Name(),
					Attempt:  attempt,
					Outcome:  "success",
					Model:    out.Generation.Model,
					Latency:  elapsed,
				})
				metrics.RecordRetry(strat.Name(), true)
				out.Request = prepared
				return out, meta, nil
			}

			if ctx.Err() != nil {
				slog.InfoContext(lctx, "triage attempt cancelled", "error", err)
				return nil, meta, ctx.Err()
			}

			transient := llm.IsTransient(err)
			outcome := "hard_fail"
			if transient {
				outcome = "transient"
			}
			attemptModel := strat.Model(attempt)
			if attemptModel == "" {
				attemptModel = e.defaultModel
			}
			meta = meta.Append(model.AttemptRecord{
				Strategy:  strat.Name(),
				Attempt:   attempt,
				Outcome:   outcome,
				Model:     attemptModel,
				Latency:   elapsed,
				Error:     err.Error(),
				Transient: transient,
			})
			metrics.RecordRetry(strat.Name(), false)
			lastErr = err

			slog.WarnContext(lctx, "triage attempt failed",
				"transient", transient,
				"error", err,
			)
		}
	}

	return nil, meta, &ExhaustedError{Request: req, Metadata: meta, LastErr: lastErr}
}

func (e *Engine) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
