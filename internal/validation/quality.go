package validation

import (
	"fmt"
	"strings"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// quotes longer than this are flagged as near the hard limit
const longQuoteLen = 180

// CheckQuality is the fourth stage. It never fails: every finding is
// an advisory warning attached to the result. Warnings are emitted in
// response order so repeated runs produce identical output.
func CheckQuality(resp *model.TriageResponse, vctx Context) []string {
	var warnings []string

	if resp.Sentiment.Confidence < vctx.MinConfidenceWarn {
		warnings = append(warnings, fmt.Sprintf(
			"sentiment: low confidence %.2f for %s", resp.Sentiment.Confidence, resp.Sentiment.Value))
	}
	if resp.Priority.Confidence < vctx.MinConfidenceWarn {
		warnings = append(warnings, fmt.Sprintf(
			"priority: low confidence %.2f for %s", resp.Priority.Confidence, resp.Priority.Value))
	}

	seenLabels := make(map[model.Topic]bool)
	for i, topic := range resp.Topics {
		path := fmt.Sprintf("topics[%d]", i)

		if topic.Confidence < vctx.MinConfidenceWarn {
			warnings = append(warnings, fmt.Sprintf(
				"%s: low confidence %.2f for %s", path, topic.Confidence, topic.LabelID))
		}
		if seenLabels[topic.LabelID] {
			warnings = append(warnings, fmt.Sprintf(
				"%s: duplicate topic label %s", path, topic.LabelID))
		}
		seenLabels[topic.LabelID] = true

		if len(topic.KeywordsInText) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: no keywords for %s", path, topic.LabelID))
		}
		if len(topic.Evidence) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: no evidence for %s", path, topic.LabelID))
		}

		seenLemmas := make(map[string]bool)
		for j, kw := range topic.KeywordsInText {
			norm := normalize(kw.Lemma)
			if norm != "" && seenLemmas[norm] {
				warnings = append(warnings, fmt.Sprintf(
					"%s.keywordsintext[%d]: duplicate keyword %q", path, j, kw.Lemma))
			}
			seenLemmas[norm] = true
		}

		seenQuotes := make(map[string]bool)
		for j, ev := range topic.Evidence {
			norm := normalize(ev.Quote)
			if seenQuotes[norm] {
				warnings = append(warnings, fmt.Sprintf(
					"%s.evidence[%d]: duplicate quote", path, j))
			}
			seenQuotes[norm] = true
			if len(ev.Quote) > longQuoteLen {
				warnings = append(warnings, fmt.Sprintf(
					"%s.evidence[%d]: quote length %d near limit", path, j, len(ev.Quote)))
			}
		}
	}

	if len(resp.Priority.Signals) == 0 {
		warnings = append(warnings, "priority: no supporting signals")
	}

	return warnings
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
