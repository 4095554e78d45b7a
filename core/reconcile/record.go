package reconcile

import (
	"fmt"
	"math"
	"reflect"
)

// DefaultIDField is the field used to match records across systems when the
// caller does not designate one.
const DefaultIDField = "id"

// Record is a single entity as exchanged with an external platform: a mapping
// from field name to a dynamically-typed value (string, number, bool,
// timestamp, nil, or a nested map/slice of the same).
//
// Records are value types. Every pass operates on its own copy; nothing in
// this package retains a Record across passes except embedded in a returned
// ConflictRecord.
type Record map[string]any

// Clone returns a deep copy of the record. Nested maps and slices are copied
// recursively so mutations of the clone never leak into the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, nested := range val {
			m[k] = cloneValue(nested)
		}
		return m
	case Record:
		return map[string]any(val.Clone())
	case []any:
		s := make([]any, len(val))
		for i, nested := range val {
			s[i] = cloneValue(nested)
		}
		return s
	default:
		return v
	}
}

// ID returns the record's identity as a string, or "" if the field is absent
// or nil. Non-string identities (numeric primary keys) are stringified.
func (r Record) ID(idField string) string {
	if idField == "" {
		idField = DefaultIDField
	}
	v, ok := r[idField]
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Equal reports whether two records are field-for-field identical.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

// Stringify converts a field value to its string form. It mirrors how the
// value would read in an external payload: strings pass through, []byte is
// interpreted as UTF-8, everything else goes through fmt.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// valuesEqual compares two field values with ordinary equality. Numeric
// values compare by magnitude regardless of Go type, since JSON decoding and
// DB scanning disagree about int vs float for the same wire value.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// asFloat widens any numeric type to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		f := float64(n)
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
