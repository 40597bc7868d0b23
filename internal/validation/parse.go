package validation

import (
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ParseStructural is the first stage: the raw model output must decode
// as a single top-level JSON object. It returns the decoded document
// for the schema stage.
func ParseStructural(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, newParseError(raw, errors.New("empty output"))
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(trimmed))
	if err != nil {
		return nil, newParseError(raw, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, newParseError(raw, errors.New("top-level value is not an object"))
	}
	return doc, nil
}
