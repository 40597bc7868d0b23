// Package service orchestrates email triage: prompting, generation,
// validation, retries and persistence behind one Classify call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/llm"
	"github.com/Kepler9870u0987/TT-InferenceLayer/common/logger"
	"github.com/Kepler9870u0987/TT-InferenceLayer/common/metrics"
	"github.com/Kepler9870u0987/TT-InferenceLayer/core/config"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/prompt"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/schema"
)

// Triage classifies emails into the closed topic taxonomy.
type Triage interface {
	Classify(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error)
}

// Engine runs one request through the retry ladder.
type Engine interface {
	Run(ctx context.Context, req *model.TriageRequest) (*retry.Outcome, retry.Metadata, error)
}

// ResultStore is the persistence surface Classify needs.
type ResultStore interface {
	SaveResult(ctx context.Context, result *model.TriageResult) error
	SaveDeadLetter(ctx context.Context, record *model.DeadLetterRecord) error
}

type triageService struct {
	engine         Engine
	repo           ResultStore
	serviceVersion string
}

// New wires the full pipeline from configuration: prompt builder,
// LLM client, validation and the retry engine.
func New(client llm.Client, repo ResultStore, redact prompt.RedactFunc, cfg config.Config) Triage {
	builder := &prompt.Builder{
		BodyLimit: cfg.Prompt.BodyLimit,
		TopN:      cfg.Prompt.CandidateTopN,
		Redact:    redact,
	}
	gen := newGenerator(client, builder, cfg.Validation)
	engine := retry.NewEngine(gen, cfg.Retry, client.Model(), cfg.LLM.FallbackModels)

	return &triageService{
		engine:         engine,
		repo:           repo,
		serviceVersion: cfg.Version,
	}
}

// NewWithEngine exists for tests that stub the retry ladder.
func NewWithEngine(engine Engine, repo ResultStore, serviceVersion string) Triage {
	return &triageService{
		engine:         engine,
		repo:           repo,
		serviceVersion: serviceVersion,
	}
}

func (s *triageService) Classify(ctx context.Context, req *model.TriageRequest) (*model.TriageResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RequestUID: logger.Ptr(req.Email.UID),
		Component:  "triage.service",
	})

	start := time.Now()
	out, meta, err := s.engine.Run(ctx, req)
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			s.deadLetter(ctx, exhausted)
			return nil, err
		}
		return nil, err
	}

	last, _ := meta.Last()
	result := &model.TriageResult{
		RequestUID:    req.Email.UID,
		Response:      *out.Response,
		Warnings:      out.Warnings,
		TotalAttempts: meta.Len(),
		FinalStrategy: last.Strategy,
		Generation:    out.Generation,
		DurationMS:    time.Since(start).Milliseconds(),
		CreatedAt:     time.Now().UTC(),
		PipelineVersion: model.PipelineVersion{
			DictionaryVersion:       req.DictionaryVersion,
			ModelVersion:            out.Generation.Model,
			SchemaVersion:           schema.Version,
			ServiceVersion:          s.serviceVersion,
			ParserVersion:           req.Email.ParserVersion,
			CanonicalizationVersion: req.Email.CanonicalizationVersion,
			NERModelVersion:         req.Email.NERModelVersion,
		},
	}

	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("persisting result: %w", err)
	}

	labels := make([]string, len(result.Response.Topics))
	for i, t := range result.Response.Topics {
		labels[i] = string(t.LabelID)
	}
	metrics.RecordTopics(labels)
	metrics.TriageDuration.Observe(time.Since(start).Seconds())

	slog.InfoContext(ctx, "triage completed",
		"topics", labels,
		"attempts", result.TotalAttempts,
		"strategy", result.FinalStrategy,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (s *triageService) deadLetter(ctx context.Context, exhausted *retry.ExhaustedError) {
	record := &model.DeadLetterRecord{
		Request:    *exhausted.Request,
		Attempts:   exhausted.Metadata.Records(),
		FinalError: exhausted.LastErr.Error(),
		Timestamp:  time.Now().UTC(),
	}
	if err := s.repo.SaveDeadLetter(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to persist dead letter", "error", err)
		return
	}
	metrics.RecordDeadLetter("retry_exhausted")
	slog.ErrorContext(ctx, "request dead-lettered",
		"attempts", len(record.Attempts),
		"final_error", record.FinalError,
	)
}
