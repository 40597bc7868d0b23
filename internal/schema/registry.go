// Package schema owns the email_triage_v2 contract: the embedded JSON
// Schema the pipeline validates raw model output against, and the
// structured-output schema handed to the LLM provider.
package schema

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Kepler9870u0987/TT-InferenceLayer/common/llm"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
)

// Version identifies the response contract. It changes only when the
// wire shape of TriageResponse changes.
const Version = "email_triage_v2"

//go:embed email_triage_v2.json
var rawSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error

	responseOnce   sync.Once
	responseSchema any
)

func load() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(rawSchema))
		if err != nil {
			compileErr = fmt.Errorf("decoding embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(Version+".json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(Version + ".json")
	})
	return compiled, compileErr
}

// Validate checks a decoded JSON document against the contract and
// returns every violation, not just the first.
func Validate(doc any) ([]string, error) {
	sch, err := load()
	if err != nil {
		return nil, err
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if ok := asValidationError(err, &verr); ok {
		return flatten(verr), nil
	}
	return nil, fmt.Errorf("schema validation: %w", err)
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	if v, ok := err.(*jsonschema.ValidationError); ok {
		*target = v
		return true
	}
	return false
}

// flatten walks the cause tree and reports leaf violations with their
// instance paths.
func flatten(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		return []string{strings.TrimSpace(err.Error())}
	}
	var out []string
	for _, cause := range err.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}

// ResponseSchema returns the structured-output schema sent to the LLM
// provider, reflected from the response type.
func ResponseSchema() any {
	responseOnce.Do(func() {
		responseSchema = llm.GenerateSchema[model.TriageResponse]()
	})
	return responseSchema
}
