package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment, so business context
// (request uid, strategy, attempt) shows up in every log line without each
// call site repeating it.
type LogFields struct {
	RequestUID *string // EmailDocument.UID of the request being triaged
	TaskID     *string // Async task id (HTTP enqueue / queue message)
	MessageID  *string // Redis stream message id
	Strategy   *string // Active retry strategy name
	Attempt    *int    // Attempt number within the active strategy
	Component  string  // Component name, e.g. "triage.retry.engine"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// attrs renders the set fields as slog attributes.
func (f LogFields) attrs() []slog.Attr {
	var out []slog.Attr
	if f.RequestUID != nil {
		out = append(out, slog.String("request_uid", *f.RequestUID))
	}
	if f.TaskID != nil {
		out = append(out, slog.String("task_id", *f.TaskID))
	}
	if f.MessageID != nil {
		out = append(out, slog.String("message_id", *f.MessageID))
	}
	if f.Strategy != nil {
		out = append(out, slog.String("strategy", *f.Strategy))
	}
	if f.Attempt != nil {
		out = append(out, slog.Int("attempt", *f.Attempt))
	}
	if f.Component != "" {
		out = append(out, slog.String("component", f.Component))
	}
	return out
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.RequestUID != nil {
		result.RequestUID = next.RequestUID
	}
	if next.TaskID != nil {
		result.TaskID = next.TaskID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Strategy != nil {
		result.Strategy = next.Strategy
	}
	if next.Attempt != nil {
		result.Attempt = next.Attempt
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{RequestUID: logger.Ptr(uid)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long strings like raw responses.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
