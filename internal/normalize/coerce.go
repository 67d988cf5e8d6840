package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/V4T54L/alert-triage/internal/domain"
)

// FieldError describes one payload field that could not be coerced into the canonical schema.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned by NormalizeStrict when a payload does not fit the canonical schema.
type ValidationError struct {
	Vendor string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return fmt.Sprintf("invalid %s payload: %s", e.Vendor, strings.Join(parts, "; "))
}

// fields reads loosely typed payload values, substituting defaults and
// remembering every value it had to reject.
type fields struct {
	errs []FieldError
}

func (f *fields) reject(field, reason string) {
	f.errs = append(f.errs, FieldError{Field: field, Reason: reason})
}

// text accepts strings only; absent and null values yield "".
func (f *fields) text(field string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		f.reject(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
}

// id accepts strings and integral numbers, rendering numbers in decimal.
func (f *fields) id(field string, v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if n, ok := asInt(v); ok {
		return strconv.FormatInt(n, 10)
	}
	f.reject(field, fmt.Sprintf("expected string or integer, got %T", v))
	return ""
}

// severity accepts non-negative integers, integral floats and numeric strings; default 0.
func (f *fields) severity(field string, v any) int {
	if v == nil {
		return 0
	}
	n, ok := asInt(v)
	if !ok {
		if wholeNumber(v) {
			f.reject(field, "out of range")
			return 0
		}
		f.reject(field, fmt.Sprintf("expected integer, got %v", v))
		return 0
	}
	if n < 0 {
		f.reject(field, "must not be negative")
		return 0
	}
	if n > math.MaxInt32 {
		f.reject(field, "out of range")
		return 0
	}
	return int(n)
}

// asInt converts the numeric shapes produced by encoding/json (with or without UseNumber)
// and by hand-built maps into an int64.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t != math.Trunc(t) || t >= 1<<63 || t < -(1<<63) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if fl, err := t.Float64(); err == nil {
			return asInt(fl)
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// wholeNumber reports whether v is an integral number, including ones too large for an int64.
func wholeNumber(v any) bool {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		// Values beyond float64 parse as ±Inf with a range error.
		if err != nil && !math.IsInf(parsed, 0) {
			return false
		}
		f = parsed
	default:
		return false
	}
	return f == math.Trunc(f) && !math.IsNaN(f)
}

// object returns v as a JSON object, or nil when it is anything else.
func object(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case domain.RawEvent:
		return t
	default:
		return nil
	}
}

// firstPresent returns the first non-nil value found under keys.
func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
