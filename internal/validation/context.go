package validation

import (
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Context carries everything the stages need besides the raw output:
// the request that produced the attempt (anchoring candidate refs and
// the dictionary version), plus quality thresholds and verifier
// toggles.
type Context struct {
	Request *model.TriageRequest

	MinConfidenceWarn float64
	CheckEvidenceText bool
	CheckKeywordText  bool
}

// NewContext returns a Context with the default thresholds applied.
func NewContext(req *model.TriageRequest) Context {
	return Context{
		Request:           req,
		MinConfidenceWarn: 0.2,
		CheckEvidenceText: true,
		CheckKeywordText:  true,
	}
}
