package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// missingMarker is hashed in place of a field that is absent from the record.
// It is distinct from both the empty string and an explicit null so that
// {"a": nil} and {} fingerprint differently.
const missingMarker = "\x00missing\x00"

// Baseline maps a record identity to its last-known fingerprint. It is
// supplied and persisted by the caller; this package only reads it.
type Baseline map[string]string

// Hash computes a deterministic fingerprint of a record over the given
// fields. With no fields, every field is hashed. Keys are processed in
// lexicographic order, so two records with identical values but different
// insertion order produce the same digest.
func Hash(r Record, fields ...string) string {
	keys := fields
	if len(keys) == 0 {
		keys = make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
	} else {
		keys = append([]string(nil), keys...)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		io.WriteString(h, k)
		h.Write([]byte{0})
		v, ok := r[k]
		if !ok {
			io.WriteString(h, missingMarker)
		} else {
			h.Write(canonicalBytes(v))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalBytes serializes a single field value into a stable byte form.
// json.Marshal sorts map keys, which keeps nested values order-independent.
func canonicalBytes(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Non-JSON-able values (channels, funcs) should never appear in a
		// Record; fall back to fmt so the hash still terminates.
		return []byte(fmt.Sprintf("%v", v))
	}
	return b
}

// ChangeSet is the classification of a batch of current records against a
// stored baseline.
type ChangeSet struct {
	// Added holds records whose identity is not present in the baseline.
	Added []Record
	// Modified holds records whose fingerprint differs from the baseline.
	Modified []Record
	// Unchanged holds records whose fingerprint matches the baseline.
	Unchanged []Record
}

// Classify splits records into added/modified/unchanged relative to the
// baseline. Records without an identity are classified as added; the caller
// decides what identity to assign them on write.
func Classify(records []Record, baseline Baseline, idField string, fields ...string) ChangeSet {
	var cs ChangeSet
	for _, rec := range records {
		id := rec.ID(idField)
		if id == "" {
			cs.Added = append(cs.Added, rec)
			continue
		}
		prev, known := baseline[id]
		switch {
		case !known:
			cs.Added = append(cs.Added, rec)
		case prev != Hash(rec, fields...):
			cs.Modified = append(cs.Modified, rec)
		default:
			cs.Unchanged = append(cs.Unchanged, rec)
		}
	}
	return cs
}

// Fingerprints computes the baseline entry for every record that carries an
// identity. Callers persist the returned map after a successful pass.
func Fingerprints(records []Record, idField string, fields ...string) Baseline {
	out := make(Baseline, len(records))
	for _, rec := range records {
		if id := rec.ID(idField); id != "" {
			out[id] = Hash(rec, fields...)
		}
	}
	return out
}
