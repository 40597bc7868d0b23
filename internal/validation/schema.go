package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/model"
	"github.com/Kepler9870u0987/TT-InferenceLayer/internal/schema"
)

// CheckSchema is the second stage: the decoded document must conform
// to the email_triage_v2 contract. All violations are collected into a
// single SchemaError.
func CheckSchema(doc any) error {
	violations, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("running schema validation: %w", err)
	}
	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

// decodeStrict turns schema-valid raw output into the typed response.
// Unknown fields are rejected to keep the contract closed-world even
// if the schema and the type ever drift apart.
func decodeStrict(raw string) (*model.TriageResponse, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var resp model.TriageResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, &SchemaError{Violations: []string{fmt.Sprintf("decoding response: %v", err)}}
	}
	return &resp, nil
}
