package validation

import (
	"fmt"
	"strings"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// The verifiers cross-check the response against the email text. They
// are advisory: a miss becomes a warning, never a failure, because the
// model may legitimately paraphrase or the text may have been redacted
// between prompting and verification.

// VerifyEvidence warns for quotes that do not appear in the email.
func VerifyEvidence(resp *model.TriageResponse, req *model.TriageRequest) []string {
	text := strings.ToLower(emailText(req))
	var warnings []string
	for i, topic := range resp.Topics {
		for j, ev := range topic.Evidence {
			if !strings.Contains(text, strings.ToLower(ev.Quote)) {
				warnings = append(warnings, fmt.Sprintf(
					"topics[%d].evidence[%d]: quote not found in email text", i, j))
			}
		}
	}
	return warnings
}

// VerifyKeywords warns for referenced candidates whose surface term is
// absent from the email.
func VerifyKeywords(resp *model.TriageResponse, req *model.TriageRequest) []string {
	text := strings.ToLower(emailText(req))
	var warnings []string
	for i, topic := range resp.Topics {
		for j, kw := range topic.KeywordsInText {
			cand, ok := req.CandidateByID(kw.CandidateID)
			if !ok {
				continue
			}
			if !strings.Contains(text, strings.ToLower(cand.Term)) &&
				!strings.Contains(text, strings.ToLower(cand.Lemma)) {
				warnings = append(warnings, fmt.Sprintf(
					"topics[%d].keywordsintext[%d]: term %q not found in email text", i, j, cand.Term))
			}
		}
	}
	return warnings
}

// VerifySpans strips character spans that fall outside the email text
// or are not well formed, warning for each one removed.
func VerifySpans(resp *model.TriageResponse, req *model.TriageRequest) []string {
	textLen := len(emailText(req))
	var warnings []string
	for i := range resp.Topics {
		topic := &resp.Topics[i]
		for j := range topic.KeywordsInText {
			kw := &topic.KeywordsInText[j]
			kept := kw.Spans[:0]
			for k, span := range kw.Spans {
				if !span.WellFormed(textLen) {
					warnings = append(warnings, fmt.Sprintf(
						"topics[%d].keywordsintext[%d].spans[%d]: dropped span [%d,%d) out of bounds for text length %d",
						i, j, k, span.Start(), span.End(), textLen))
					continue
				}
				kept = append(kept, span)
			}
			kw.Spans = kept
		}
		for j := range topic.Evidence {
			ev := &topic.Evidence[j]
			if ev.Span != nil && !ev.Span.WellFormed(textLen) {
				warnings = append(warnings, fmt.Sprintf(
					"topics[%d].evidence[%d].span: dropped span [%d,%d) out of bounds for text length %d",
					i, j, ev.Span.Start(), ev.Span.End(), textLen))
				ev.Span = nil
			}
		}
	}
	return warnings
}

func emailText(req *model.TriageRequest) string {
	return req.Email.Subject + "\n" + req.Email.Body
}
