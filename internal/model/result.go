package model

import "time"

// GenerationMetadata summarizes the successful generation call for audit.
type GenerationMetadata struct {
	Model            string `json:"model"`
	FinishReason     string `json:"finish_reason"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	LatencyMS        int64  `json:"latency_ms"`
}

// TriageResult is the persisted artifact for a successful classification:
// the validated response plus everything needed to audit how it was produced.
type TriageResult struct {
	RequestUID string         `json:"request_uid"`
	Response   TriageResponse `json:"response"`

	PipelineVersion PipelineVersion    `json:"pipeline_version"`
	Generation      GenerationMetadata `json:"generation"`

	Warnings      []string  `json:"warnings"`
	TotalAttempts int       `json:"total_attempts"`
	FinalStrategy string    `json:"final_strategy"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// DeadLetterRecord is written when every retry strategy is exhausted.
// It must be self-describing enough for manual review: the original request,
// the complete attempt trail and the final error all travel together.
type DeadLetterRecord struct {
	Request    TriageRequest   `json:"request"`
	Attempts   []AttemptRecord `json:"attempts"`
	FinalError string          `json:"final_error"`
	Timestamp  time.Time       `json:"timestamp"`
}

// AttemptRecord is one entry of the retry audit trail.
type AttemptRecord struct {
	Strategy  string        `json:"strategy"`
	Attempt   int           `json:"attempt"`
	Outcome   string        `json:"outcome"` // success, hard_fail, transient
	Model     string        `json:"model,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
	Transient bool          `json:"transient,omitempty"`
}
