package model

import "time"

// PIIEntity is a PII annotation carried by the upstream preprocessing layer.
// Entities are annotated, not redacted: redaction happens on the fly before
// prompts leave the process (see internal/pii) when configured.
type PIIEntity struct {
	Type            string  `json:"type"` // CF, PHONE_IT, EMAIL, NAME, ORG, ...
	OriginalHash    string  `json:"original_hash"`
	SpanStart       int     `json:"span_start"`
	SpanEnd         int     `json:"span_end"`
	Confidence      float64 `json:"confidence"`
	DetectionMethod string  `json:"detection_method"`
}

// EmailDocument is the canonicalized email from the preprocessing layer.
// Body text arrives already cleaned and truncated to the upstream limit.
type EmailDocument struct {
	UID         string      `json:"uid"`
	Mailbox     string      `json:"mailbox"`
	MessageID   string      `json:"message_id"`
	FetchedAt   time.Time   `json:"fetched_at"`
	FromAddr    string      `json:"from_addr"`
	Subject     string      `json:"subject"`
	Body        string      `json:"body"`
	PIIEntities []PIIEntity `json:"pii_entities,omitempty"`

	// Upstream component versions, echoed into PipelineVersion for audit.
	ParserVersion           string `json:"parser_version,omitempty"`
	CanonicalizationVersion string `json:"canonicalization_version,omitempty"`
	NERModelVersion         string `json:"ner_model_version,omitempty"`
}

// CandidateKeyword is a term the generation model may select but never invent.
// CandidateID is a stable, upstream-assigned opaque identifier.
type CandidateKeyword struct {
	CandidateID string  `json:"candidate_id"`
	Term        string  `json:"term"`
	Lemma       string  `json:"lemma"`
	Count       int     `json:"count"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}

// Overrides carries optional per-request configuration.
type Overrides struct {
	BodyLimit int `json:"body_limit,omitempty"`
	TopN      int `json:"top_n,omitempty"`
}

// TriageRequest is the unit of work: one email, its candidate keywords
// (pre-sorted by score, non-empty) and the dictionary version in effect.
// Requests are treated as immutable once constructed; a shrink retry derives
// a new, smaller request instead of mutating this one.
type TriageRequest struct {
	Email             EmailDocument      `json:"email"`
	Candidates        []CandidateKeyword `json:"candidate_keywords"`
	DictionaryVersion int                `json:"dictionary_version"`
	Overrides         Overrides          `json:"overrides,omitempty"`
}

// CandidateIDSet returns the set of candidate ids valid for this request.
// Anchoring is always checked against the request that produced the attempt.
func (r *TriageRequest) CandidateIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Candidates))
	for _, c := range r.Candidates {
		ids[c.CandidateID] = struct{}{}
	}
	return ids
}

// CandidateByID looks up a candidate keyword by its stable id.
func (r *TriageRequest) CandidateByID(id string) (CandidateKeyword, bool) {
	for _, c := range r.Candidates {
		if c.CandidateID == id {
			return c, true
		}
	}
	return CandidateKeyword{}, false
}
