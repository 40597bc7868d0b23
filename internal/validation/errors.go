package validation

import (
	"fmt"
	"strings"
)

// Stage names as reported in errors and metrics.
const (
	StageParse   = "structural_parse"
	StageSchema  = "schema_conformance"
	StageRules   = "business_rules"
	StageQuality = "quality_warnings"
)

const snippetLimit = 500

// ParseError reports raw output that is not a JSON object. Snippet is
// a bounded prefix of the offending payload for diagnostics.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural parse failed: %v (snippet: %q)", e.Err, e.Snippet)
	}
	return fmt.Sprintf("structural parse failed (snippet: %q)", e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(raw string, err error) *ParseError {
	snippet := raw
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return &ParseError{Snippet: snippet, Err: err}
}

// SchemaError carries every contract violation found in one pass.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema conformance failed: %d violation(s): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// BusinessRuleError reports a single broken rule at a field path.
type BusinessRuleError struct {
	Rule      string
	FieldPath string
	Value     string
	Allowed   []string
}

func (e *BusinessRuleError) Error() string {
	msg := fmt.Sprintf("business rule %s failed at %s: got %q", e.Rule, e.FieldPath, e.Value)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return msg
}

// StageOf maps a validation error to the stage that produced it, for
// metrics labelling. Unknown errors map to the rules stage.
func StageOf(err error) string {
	switch err.(type) {
	case *ParseError:
		return StageParse
	case *SchemaError:
		return StageSchema
	case *BusinessRuleError:
		return StageRules
	default:
		return StageRules
	}
}
