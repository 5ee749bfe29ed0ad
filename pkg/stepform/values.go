package stepform

import (
	"encoding/json"
	"maps"
	"math"
	"reflect"
	"strings"
	"time"
)

// Values maps field names to their current values.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Errors maps field names to their error message. A valid field has no entry.
type Errors map[string]string

// Clone returns a copy of e.
func (e Errors) Clone() Errors {
	if e == nil {
		return Errors{}
	}
	return maps.Clone(e)
}

// Record is an existing record used to seed a wizard in edit mode.
type Record struct {
	ID     string
	Values Values
}

// isBlank reports whether a value counts as "not provided".
// nil, whitespace-only strings and the zero time are blank; 0 is a real number.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case time.Time:
		return t.IsZero()
	default:
		return false
	}
}

// isUnset reports whether an optional field can skip its validators:
// the value is blank or still equal to the field default.
func isUnset(f *FieldDefinition, v any) bool {
	if isBlank(v) {
		return true
	}
	def := f.DefaultValue()
	if def == nil {
		return false
	}
	if n, ok := toFloat(v); ok {
		if d, ok := toFloat(def); ok {
			return n == d
		}
	}
	return reflect.DeepEqual(v, def)
}

// toFloat converts a numeric value to float64 if possible.
// Strings are not converted: a number field must hold a number. NaN is rejected.
func toFloat(v any) (float64, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// parseDate parses a date value (string or time.Time).
// Supports ISO 8601 formats.
func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		formats := []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, d); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// equalValues compares two field values, treating numbers of different Go types alike.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}
