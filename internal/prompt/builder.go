// Package prompt assembles the system and user prompts for a triage
// request and owns the request-shrinking transform used by the retry
// engine.
package prompt

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// RedactFunc rewrites the email body before it reaches the prompt.
type RedactFunc func(body string, entities []model.PIIEntity) string

// Builder renders prompts with the configured body and candidate
// limits. Per-request overrides win over the defaults.
type Builder struct {
	BodyLimit int
	TopN      int
	Redact    RedactFunc
}

type systemData struct {
	Topics     []model.Topic
	SchemaName string
}

type userData struct {
	DictionaryVersion int
	Candidates        []model.CandidateKeyword
	FromAddr          string
	Subject           string
	Body              string
}

// Build renders the system and user prompts for a request.
func (b *Builder) Build(req *model.TriageRequest) (system, user string, err error) {
	bodyLimit := b.BodyLimit
	if req.Overrides.BodyLimit > 0 {
		bodyLimit = req.Overrides.BodyLimit
	}
	topN := b.TopN
	if req.Overrides.TopN > 0 {
		topN = req.Overrides.TopN
	}

	body := req.Email.Body
	if b.Redact != nil {
		body = b.Redact(body, req.Email.PIIEntities)
	}
	body = TruncateAtSentenceBoundary(body, bodyLimit)

	var sysBuf strings.Builder
	if err := templates.ExecuteTemplate(&sysBuf, "system.tmpl", systemData{
		Topics:     model.Topics(),
		SchemaName: schema.Version,
	}); err != nil {
		return "", "", fmt.Errorf("rendering system prompt: %w", err)
	}

	var usrBuf strings.Builder
	if err := templates.ExecuteTemplate(&usrBuf, "user.tmpl", userData{
		DictionaryVersion: req.DictionaryVersion,
		Candidates:        SelectCandidates(req.Candidates, topN),
		FromAddr:          req.Email.FromAddr,
		Subject:           req.Email.Subject,
		Body:              body,
	}); err != nil {
		return "", "", fmt.Errorf("rendering user prompt: %w", err)
	}

	return sysBuf.String(), usrBuf.String(), nil
}

// SelectCandidates returns the top n candidates by score, breaking
// ties by count then by id for a stable order.
func SelectCandidates(candidates []model.CandidateKeyword, n int) []model.CandidateKeyword {
	if n <= 0 || len(candidates) <= n {
		out := make([]model.CandidateKeyword, len(candidates))
		copy(out, candidates)
		sortCandidates(out)
		return out
	}
	out := make([]model.CandidateKeyword, len(candidates))
	copy(out, candidates)
	sortCandidates(out)
	return out[:n]
}

func sortCandidates(c []model.CandidateKeyword) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].CandidateID < c[j].CandidateID
	})
}

// ShrinkRequest derives a smaller request from req: the body truncated
// at a sentence boundary and the candidate list cut to the top n. The
// result is a distinct value; responses to it are validated against
// its own candidate set.
func ShrinkRequest(req *model.TriageRequest, bodyLimit, topN int) *model.TriageRequest {
	shrunk := *req
	shrunk.Email.Body = TruncateAtSentenceBoundary(req.Email.Body, bodyLimit)
	shrunk.Candidates = SelectCandidates(req.Candidates, topN)
	shrunk.Overrides = model.Overrides{BodyLimit: bodyLimit, TopN: topN}
	return &shrunk
}
