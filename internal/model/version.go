package model

// PipelineVersion is the frozen version snapshot persisted with every result.
// Same versions plus same input must reproduce the same output, so every
// component that influences the classification is pinned here.
type PipelineVersion struct {
	DictionaryVersion int    `json:"dictionary_version"`
	ModelVersion      string `json:"model_version"`
	SchemaVersion     string `json:"schema_version"`
	ServiceVersion    string `json:"service_version"`

	// Upstream preprocessing versions, copied from the request's email.
	ParserVersion           string `json:"parser_version,omitempty"`
	CanonicalizationVersion string `json:"canonicalization_version,omitempty"`
	NERModelVersion         string `json:"ner_model_version,omitempty"`
}
