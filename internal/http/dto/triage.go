package dto

import "github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"

type TriageRequest struct {
	Email             EmailDocument      `json:"email" binding:"required"`
	Candidates        []CandidateKeyword `json:"candidates" binding:"required"`
	DictionaryVersion int                `json:"dictionary_version" binding:"required"`
	BodyLimit         int                `json:"body_limit,omitempty"`
	TopN              int                `json:"top_n,omitempty"`
}

type EmailDocument struct {
	UID       string           `json:"uid" binding:"required"`
	Mailbox   string           `json:"mailbox,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	FromAddr  string           `json:"from_addr,omitempty"`
	Subject   string           `json:"subject,omitempty"`
	Body      string           `json:"body" binding:"required"`
	PII       []PIIEntity      `json:"pii_entities,omitempty"`
	Versions  DocumentVersions `json:"versions,omitempty"`
}

type DocumentVersions struct {
	Parser           string `json:"parser,omitempty"`
	Canonicalization string `json:"canonicalization,omitempty"`
	NERModel         string `json:"ner_model,omitempty"`
}

type PIIEntity struct {
	Type            string  `json:"type"`
	OriginalHash    string  `json:"original_hash,omitempty"`
	SpanStart       int     `json:"span_start"`
	SpanEnd         int     `json:"span_end"`
	Confidence      float64 `json:"confidence"`
	DetectionMethod string  `json:"detection_method,omitempty"`
}

type CandidateKeyword struct {
	CandidateID string  `json:"candidate_id" binding:"required"`
	Term        string  `json:"term" binding:"required"`
	Lemma       string  `json:"lemma,omitempty"`
	Count       int     `json:"count,omitempty"`
	Source      string  `json:"source,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// ToModel converts the wire request into the internal request type.
func (r *TriageRequest) ToModel() *model.TriageRequest {
	candidates := make([]model.CandidateKeyword, len(r.Candidates))
	for i, c := range r.Candidates {
		candidates[i] = model.CandidateKeyword{
			CandidateID: c.CandidateID,
			Term:        c.Term,
			Lemma:       c.Lemma,
			Count:       c.Count,
			Source:      c.Source,
			Score:       c.Score,
		}
	}

	pii := make([]model.PIIEntity, len(r.Email.PII))
	for i, e := range r.Email.PII {
		pii[i] = model.PIIEntity{
			Type:            e.Type,
			OriginalHash:    e.OriginalHash,
			SpanStart:       e.SpanStart,
			SpanEnd:         e.SpanEnd,
			Confidence:      e.Confidence,
			DetectionMethod: e.DetectionMethod,
		}
	}

	return &model.TriageRequest{
		Email: model.EmailDocument{
			UID:                     r.Email.UID,
			Mailbox:                 r.Email.Mailbox,
			MessageID:               r.Email.MessageID,
			FromAddr:                r.Email.FromAddr,
			Subject:                 r.Email.Subject,
			Body:                    r.Email.Body,
			PIIEntities:             pii,
			ParserVersion:           r.Email.Versions.Parser,
			CanonicalizationVersion: r.Email.Versions.Canonicalization,
			NERModelVersion:         r.Email.Versions.NERModel,
		},
		Candidates:        candidates,
		DictionaryVersion: r.DictionaryVersion,
		Overrides: model.Overrides{
			BodyLimit: r.BodyLimit,
			TopN:      r.TopN,
		},
	}
}

type EnqueueResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type TaskStatusResponse struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	RequestUID string `json:"request_uid,omitempty"`
	Error      string `json:"error,omitempty"`
}

type DeadLetterListResponse struct {
	Count   int                      `json:"count"`
	Records []model.DeadLetterRecord `json:"records"`
}
