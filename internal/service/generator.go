package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/llm"
	"github.com/Kepler9870u0987/TT-InferenceLayer/common/logger"
	"github.com/Kepler9870u0987/TT-InferenceLayer/core/config"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/prompt"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/retry"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/schema"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/validation"
)

// generator is the single generate-and-validate step the retry engine
// drives. One call is one model attempt.
type generator struct {
	client  llm.Client
	builder *prompt.Builder
	valCfg  config.ValidationConfig
}

func newGenerator(client llm.Client, builder *prompt.Builder, valCfg config.ValidationConfig) *generator {
	return &generator{
		client:  client,
		builder: builder,
		valCfg:  valCfg,
	}
}

func (g *generator) Attempt(ctx context.Context, req *model.TriageRequest, modelOverride string) (*retry.Outcome, error) {
	system, user, err := g.builder.Build(req)
	if err != nil {
		return nil, fmt.Errorf("building prompts: %w", err)
	}

	resp, err := g.client.Generate(ctx, llm.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		SchemaName:   schema.Version,
		Schema:       schema.ResponseSchema(),
		Model:        modelOverride,
	})
	if err != nil {
		return nil, err
	}

	vctx := validation.Context{
		Request:           req,
		MinConfidenceWarn: g.valCfg.MinConfidenceWarn,
		CheckEvidenceText: g.valCfg.CheckEvidencePresent,
		CheckKeywordText:  g.valCfg.CheckKeywordPresent,
	}
	validated, warnings, err := validation.Validate(ctx, resp.Content, vctx)
	if err != nil {
		slog.DebugContext(ctx, "model output rejected",
			"error", err,
			"raw", logger.Truncate(resp.Content, 500))
		return nil, err
	}

	return &retry.Outcome{
		Response: validated,
		Warnings: warnings,
		Generation: model.GenerationMetadata{
			Model:            resp.Model,
			FinishReason:     resp.FinishReason,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			LatencyMS:        resp.LatencyMS,
		},
	}, nil
}
