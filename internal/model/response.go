package model

// Span is a half-open [start, end) character range into the email body.
// It marshals as a two-element JSON array.
type Span [2]int

func (s Span) Start() int { return s[0] }
func (s Span) End() int   { return s[1] }

// WellFormed reports whether the span is a valid range for a text of the
// given length: 0 <= start < end <= textLen.
func (s Span) WellFormed(textLen int) bool {
	return s[0] >= 0 && s[0] < s[1] && s[1] <= textLen
}

// KeywordInText is a keyword the model selected from the candidate list.
// CandidateID must reference a candidate of the request that produced the
// attempt; anything else is treated as invention and hard-fails validation.
type KeywordInText struct {
	CandidateID string `json:"candidateid"`
	Lemma       string `json:"lemma"`
	Count       int    `json:"count"`
	Spans       []Span `json:"spans,omitempty"`
}

// EvidenceItem is a short quote (<=200 chars) supporting a topic.
type EvidenceItem struct {
	Quote string `json:"quote"`
	Span  *Span  `json:"span,omitempty"`
}

// TopicResult is one label of the multi-label classification.
type TopicResult struct {
	LabelID        Topic           `json:"labelid"`
	Confidence     float64         `json:"confidence"`
	KeywordsInText []KeywordInText `json:"keywordsintext"`
	Evidence       []EvidenceItem  `json:"evidence"`
}

type SentimentResult struct {
	Value      Sentiment `json:"value"`
	Confidence float64   `json:"confidence"`
}

// PriorityResult carries up to six short audit signals explaining the label.
type PriorityResult struct {
	Value      Priority `json:"value"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

// TriageResponse is the schema-bound classification result. It is only ever
// constructed from generation output that survived the full validation
// pipeline; the schema is closed-world, so unknown fields are rejected.
type TriageResponse struct {
	DictionaryVersion int             `json:"dictionaryversion"`
	Sentiment         SentimentResult `json:"sentiment"`
	Priority          PriorityResult  `json:"priority"`
	Topics            []TopicResult   `json:"topics"`
}

// Evidence quote length and bounds used across validation stages.
const (
	MaxEvidenceQuoteLen = 200
	MaxTopics           = 5
	MaxKeywordsPerTopic = 15
	MaxEvidencePerTopic = 2
	MaxPrioritySignals  = 6
)
