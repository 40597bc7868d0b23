// Package pii replaces detected personal data in email bodies with
// typed placeholders before the text reaches any model prompt.
package pii

import (
	"sort"
	"strings"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Redactor filters entities by type and confidence. An empty Types set
// redacts every entity type.
type Redactor struct {
	Types         map[string]bool
	MinConfidence float64
}

// Redact replaces every matching entity span with [REDACTED_<TYPE>].
// Spans are applied end to start so earlier offsets stay valid, and
// spans outside the body are skipped.
func (r *Redactor) Redact(body string, entities []model.PIIEntity) string {
	if len(entities) == 0 {
		return body
	}

	matched := make([]model.PIIEntity, 0, len(entities))
	for _, e := range entities {
		if len(r.Types) > 0 && !r.Types[e.Type] {
			continue
		}
		if e.Confidence < r.MinConfidence {
			continue
		}
		if e.SpanStart < 0 || e.SpanEnd > len(body) || e.SpanStart >= e.SpanEnd {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SpanStart > matched[j].SpanStart
	})

	for _, e := range matched {
		placeholder := "[REDACTED_" + strings.ToUpper(e.Type) + "]"
		body = body[:e.SpanStart] + placeholder + body[e.SpanEnd:]
	}
	return body
}
