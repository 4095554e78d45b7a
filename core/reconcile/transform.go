package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TransformKind identifies a field-level value transform.
type TransformKind string

const (
	TransformLowercase TransformKind = "lowercase"
	TransformUppercase TransformKind = "uppercase"
	TransformTrim      TransformKind = "trim"
	TransformToInt     TransformKind = "toInt"
	TransformToFloat   TransformKind = "toFloat"
	TransformToBool    TransformKind = "toBool"
	TransformToJSON    TransformKind = "toJSON"
	TransformToString  TransformKind = "toString"
)

// IsValid reports whether the transform kind is recognized.
func (k TransformKind) IsValid() bool {
	switch k {
	case TransformLowercase, TransformUppercase, TransformTrim,
		TransformToInt, TransformToFloat, TransformToBool,
		TransformToJSON, TransformToString:
		return true
	default:
		return false
	}
}

// Transform applies a transform to a single field value. An unrecognized
// kind or a value the transform cannot handle returns the original value
// unchanged with ok=false; it never fails hard, so a malformed field flows
// through the pipeline and surfaces downstream instead of crashing a batch.
func Transform(value any, kind TransformKind) (result any, ok bool) {
	switch kind {
	case TransformLowercase:
		if s, isStr := value.(string); isStr {
			return strings.ToLower(s), true
		}
	case TransformUppercase:
		if s, isStr := value.(string); isStr {
			return strings.ToUpper(s), true
		}
	case TransformTrim:
		if s, isStr := value.(string); isStr {
			return strings.TrimSpace(s), true
		}
	case TransformToInt:
		if n, converted := toInt64(value); converted {
			return n, true
		}
	case TransformToFloat:
		if f, converted := toFloat64(value); converted {
			return f, true
		}
	case TransformToBool:
		if b, converted := toBool(value); converted {
			return b, true
		}
	case TransformToJSON:
		if b, err := json.Marshal(value); err == nil {
			return string(b), true
		}
	case TransformToString:
		return Stringify(value), true
	}
	return value, false
}

// toInt64 converts numeric types, numeric strings and byte slices to int64.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		return parseInt64(n)
	case []byte:
		return parseInt64(string(n))
	default:
		return 0, false
	}
}

func parseInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	// Accept float-formatted strings the way external exports often ship
	// integer ids ("42.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// toFloat64 converts numeric types and numeric strings to float64.
func toFloat64(v any) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	switch n := v.(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	case []byte:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64); err == nil {
			return f, true
		}
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toBool converts bool, numeric types (1 = true, 0 = false) and common
// string forms to bool.
func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		return parseBool(b)
	case []byte:
		return parseBool(string(b))
	default:
		if n, ok := toInt64(v); ok {
			switch n {
			case 0:
				return false, true
			case 1:
				return true, true
			}
		}
		return false, false
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, true
	case "0", "false", "no", "n", "":
		return false, true
	default:
		return false, false
	}
}

// ApplyTransforms runs the configured per-field transforms over a record and
// returns the transformed copy plus a warning per field whose transform
// could not be applied. Warnings are informational; the original value is
// kept so downstream validation can still report the record.
func ApplyTransforms(r Record, transforms map[string]TransformKind) (Record, []string) {
	if len(transforms) == 0 {
		return r, nil
	}
	out := r.Clone()
	var warnings []string
	for field, kind := range transforms {
		v, present := out[field]
		if !present {
			continue
		}
		transformed, ok := Transform(v, kind)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("field %q: transform %q not applicable to %T", field, kind, v))
			continue
		}
		out[field] = transformed
	}
	return out, warnings
}
