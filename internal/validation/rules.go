package validation

import (
	"fmt"
	"strconv"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Rule names, stable for logs and metrics.
const (
	RuleDictionaryVersion = "dictionary_version_match"
	RuleTopicInEnum       = "topic_label_in_enum"
	RuleCandidateExists   = "candidateid_exists_in_input"
	RuleSentimentInEnum   = "sentiment_in_enum"
	RulePriorityInEnum    = "priority_in_enum"
)

// CheckRules is the third stage: semantic constraints the JSON Schema
// cannot express. Every candidate reference in the response must point
// at a candidate of the request that produced this attempt, and the
// response must echo the request's dictionary version.
func CheckRules(resp *model.TriageResponse, req *model.TriageRequest) error {
	if resp.DictionaryVersion != req.DictionaryVersion {
		return &BusinessRuleError{
			Rule:      RuleDictionaryVersion,
			FieldPath: "dictionaryversion",
			Value:     strconv.Itoa(resp.DictionaryVersion),
			Allowed:   []string{strconv.Itoa(req.DictionaryVersion)},
		}
	}

	if !resp.Sentiment.Value.Valid() {
		return &BusinessRuleError{
			Rule:      RuleSentimentInEnum,
			FieldPath: "sentiment.value",
			Value:     string(resp.Sentiment.Value),
			Allowed:   []string{"positive", "neutral", "negative"},
		}
	}
	if !resp.Priority.Value.Valid() {
		return &BusinessRuleError{
			Rule:      RulePriorityInEnum,
			FieldPath: "priority.value",
			Value:     string(resp.Priority.Value),
			Allowed:   []string{"low", "medium", "high", "urgent"},
		}
	}

	known := req.CandidateIDSet()
	for i, topic := range resp.Topics {
		if !topic.LabelID.Valid() {
			return &BusinessRuleError{
				Rule:      RuleTopicInEnum,
				FieldPath: fmt.Sprintf("topics[%d].labelid", i),
				Value:     string(topic.LabelID),
				Allowed:   topicLabels(),
			}
		}
		for j, kw := range topic.KeywordsInText {
			if _, ok := known[kw.CandidateID]; !ok {
				return &BusinessRuleError{
					Rule:      RuleCandidateExists,
					FieldPath: fmt.Sprintf("topics[%d].keywordsintext[%d].candidateid", i, j),
					Value:     kw.CandidateID,
				}
			}
		}
	}
	return nil
}

func topicLabels() []string {
	topics := model.Topics()
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = string(t)
	}
	return out
}
