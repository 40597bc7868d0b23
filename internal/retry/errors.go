package retry

import (
	"fmt"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// ExhaustedError is returned when every strategy has spent its
// attempts without a validated response. It carries the full attempt
// history so the caller can dead-letter the request with context.
type ExhaustedError struct {
	Request  *model.TriageRequest
	Metadata Metadata
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempt(s) for %s: %v",
		e.Metadata.Len(), e.Request.Email.UID, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }
