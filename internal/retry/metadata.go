package retry

import "github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"

// Metadata is the immutable attempt history of one triage run. Append
// returns a new value sharing no visible state with its receiver, so
// callers can hold onto any intermediate history safely.
type Metadata struct {
	records []model.AttemptRecord
}

func (m Metadata) Append(r model.AttemptRecord) Metadata {
	next := make([]model.AttemptRecord, len(m.records)+1)
	copy(next, m.records)
	next[len(m.records)] = r
	return Metadata{records: next}
}

// Records returns a copy of the attempt history in order.
func (m Metadata) Records() []model.AttemptRecord {
	out := make([]model.AttemptRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m Metadata) Len() int { return len(m.records) }

func (m Metadata) Last() (model.AttemptRecord, bool) {
	if len(m.records) == 0 {
		return model.AttemptRecord{}, false
	}
	return m.records[len(m.records)-1], true
}
