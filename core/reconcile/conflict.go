package reconcile

import (
	"fmt"
	"time"
)

// ConflictRecord is the sentinel produced when a resolution strategy defers
// to a human. It is never written to any store; the caller routes it to a
// review queue.
type ConflictRecord struct {
	IsConflict               bool   `json:"is_conflict"`
	Source                   Record `json:"source"`
	Destination              Record `json:"destination"`
	RequiresManualResolution bool   `json:"requires_manual_resolution"`
}

// NewConflictRecord builds the sentinel for a source/destination pair.
// Both sides are cloned so the sentinel stays stable after the pass.
func NewConflictRecord(source, destination Record) ConflictRecord {
	return ConflictRecord{
		IsConflict:               true,
		Source:                   source.Clone(),
		Destination:              destination.Clone(),
		RequiresManualResolution: true,
	}
}

// DetectConflicts returns the subset of fields whose source and destination
// values differ, using ordinary equality. The caller needs to know which
// fields differ, not just that they differ, so no hashing here. Field order
// of the input is preserved in the output.
func DetectConflicts(source, destination Record, fields []string) []string {
	var differing []string
	for _, f := range fields {
		if !valuesEqual(source[f], destination[f]) {
			differing = append(differing, f)
		}
	}
	return differing
}

// Resolve produces a single record from a conflicting pair according to the
// resolution policy. Under ResolutionManual the returned record is nil and
// the ConflictRecord is populated instead. An unrecognized resolution is a
// programmer error and fails fast.
func Resolve(source, destination Record, resolution Resolution, timestampField string) (Record, *ConflictRecord, error) {
	switch resolution {
	case ResolutionSourceWins:
		return source.Clone(), nil, nil
	case ResolutionDestinationWins:
		return destination.Clone(), nil, nil
	case ResolutionNewestWins:
		return resolveNewest(source, destination, timestampField), nil, nil
	case ResolutionMerge:
		return resolveMerge(source, destination, timestampField), nil, nil
	case ResolutionManual:
		cr := NewConflictRecord(source, destination)
		return nil, &cr, nil
	default:
		return nil, nil, fmt.Errorf("unknown conflict resolution %q", resolution)
	}
}

// resolveNewest picks the side with the strictly later timestamp. If either
// side lacks a usable timestamp the source wins; this is the documented
// fallback, not silent ambiguity. Equal timestamps also resolve to source,
// so there is one rule rather than two.
func resolveNewest(source, destination Record, timestampField string) Record {
	st, sok := ParseTimestamp(source[timestampField])
	dt, dok := ParseTimestamp(destination[timestampField])
	if sok && dok && dt.After(st) {
		return destination.Clone()
	}
	return source.Clone()
}

// resolveMerge starts from the destination, then backfills every field the
// source has a non-null value for and the destination has null (or missing).
// The timestamp field is the exception: it always takes the later of the two
// values regardless of null-ness. This privileges the destination's
// authoritative values without losing fresh source-only data; see DESIGN.md
// for why the asymmetry is preserved as-is.
func resolveMerge(source, destination Record, timestampField string) Record {
	merged := destination.Clone()
	if merged == nil {
		merged = make(Record)
	}
	for field, sv := range source {
		if field == timestampField {
			continue
		}
		if sv == nil {
			continue
		}
		if dv, present := merged[field]; !present || dv == nil {
			merged[field] = cloneValue(sv)
		}
	}

	if timestampField != "" {
		sv, spresent := source[timestampField]
		dv, dpresent := destination[timestampField]
		st, sok := ParseTimestamp(sv)
		dt, dok := ParseTimestamp(dv)
		switch {
		case sok && dok:
			if st.After(dt) {
				merged[timestampField] = cloneValue(sv)
			} else {
				merged[timestampField] = cloneValue(dv)
			}
		case sok:
			merged[timestampField] = cloneValue(sv)
		case dok:
			merged[timestampField] = cloneValue(dv)
		case dpresent:
			merged[timestampField] = cloneValue(dv)
		case spresent:
			merged[timestampField] = cloneValue(sv)
		}
	}
	return merged
}

// timestampLayouts are tried in order for string timestamps. Layouts without
// a zone are interpreted as UTC per the sync contract.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp interprets a field value as an instant. It accepts
// time.Time, RFC3339-style strings (zoneless forms treated as UTC), and
// unix seconds as int or float. Unparseable values report ok=false and
// behave as missing.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case int, int32, int64, uint, uint32, uint64:
		n, _ := toInt64(t)
		return time.Unix(n, 0).UTC(), true
	case float32, float64:
		f, _ := toFloat64(t)
		sec := int64(f)
		nsec := int64((f - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	default:
		return time.Time{}, false
	}
}
