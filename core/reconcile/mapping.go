package reconcile

import "sort"

// ApplyMapping renames fields from the source's vocabulary to the
// destination's. Every key present in mapping is renamed to its target;
// keys absent from mapping pass through unchanged, so the mapping is a
// partial overlay, not an allow-list.
//
// Mapping runs before validation and conflict detection: all downstream
// logic operates in the destination's field vocabulary.
//
// Keys are processed in lexicographic order so that a rename colliding with
// a passthrough key resolves deterministically (the later write wins).
func ApplyMapping(r Record, mapping map[string]string) Record {
	if len(mapping) == 0 {
		return r.Clone()
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Record, len(r))
	for _, k := range keys {
		target := k
		if renamed, ok := mapping[k]; ok {
			target = renamed
		}
		out[target] = cloneValue(r[k])
	}
	return out
}
