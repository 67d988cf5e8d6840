package pii

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor removes sensitive values from raw vendor payloads before they leave the process.
type Redactor struct {
	fieldsToRedact map[string]struct{} // lower-cased key names
	logger         *slog.Logger
}

// NewRedactor creates a new Redactor instance with a given set of fields to redact.
// Field names match case-insensitively at any nesting depth.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			fieldSet[strings.ToLower(field)] = struct{}{}
		}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Redact returns a deep copy of raw with every matching field replaced by
// RedactedPlaceholder, and reports whether anything was replaced. raw itself is
// never modified, so the in-flight triage keeps seeing the original values.
func (r *Redactor) Redact(raw domain.RawEvent) (domain.RawEvent, bool) {
	if raw == nil {
		return nil, false
	}
	redacted := 0
	out := r.redactMap(raw, &redacted)
	if redacted > 0 {
		r.logger.Debug("redacted sensitive fields from raw payload", "count", redacted)
	}
	return domain.RawEvent(out), redacted > 0
}

func (r *Redactor) redactMap(in map[string]any, count *int) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if _, ok := r.fieldsToRedact[strings.ToLower(k)]; ok {
			out[k] = RedactedPlaceholder
			*count++
			continue
		}
		out[k] = r.redactValue(v, count)
	}
	return out
}

func (r *Redactor) redactValue(v any, count *int) any {
	switch val := v.(type) {
	case map[string]any:
		return r.redactMap(val, count)
	case domain.RawEvent:
		return r.redactMap(val, count)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.redactValue(item, count)
		}
		return out
	default:
		return v
	}
}
