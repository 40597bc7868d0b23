// Package validation implements the staged checks applied to every
// model attempt: structural parse, schema conformance, business rules,
// then advisory quality warnings and text verifiers. The first three
// stages fail fast; the advisory checks always run on a response that
// passed them.
package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/metrics"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Validate runs the full pipeline over one raw model output. On
// success it returns the typed response plus any advisory warnings.
// On failure the returned error identifies the failing stage and the
// response is nil; warnings gathered before the failure are discarded
// with it.
func Validate(ctx context.Context, raw string, vctx Context) (*model.TriageResponse, []string, error) {
	doc, err := ParseStructural(raw)
	if err != nil {
		return nil, nil, fail(ctx, err)
	}

	if err := CheckSchema(doc); err != nil {
		return nil, nil, fail(ctx, err)
	}

	resp, err := decodeStrict(raw)
	if err != nil {
		return nil, nil, fail(ctx, err)
	}

	if err := CheckRules(resp, vctx.Request); err != nil {
		return nil, nil, fail(ctx, err)
	}

	warnings := CheckQuality(resp, vctx)
	if vctx.CheckEvidenceText {
		warnings = append(warnings, VerifyEvidence(resp, vctx.Request)...)
	}
	if vctx.CheckKeywordText {
		warnings = append(warnings, VerifyKeywords(resp, vctx.Request)...)
	}
	warnings = append(warnings, VerifySpans(resp, vctx.Request)...)

	if len(warnings) > 0 {
		slog.DebugContext(ctx, "validation passed with warnings", "count", len(warnings))
	}
	return resp, warnings, nil
}

func fail(ctx context.Context, err error) error {
	stage := StageOf(err)
	metrics.RecordValidationFailure(stage, fmt.Sprintf("%T", err))
	slog.DebugContext(ctx, "validation failed", "stage", stage, "error", err)
	return err
}
