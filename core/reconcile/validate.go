package reconcile

import "sort"

// Validate checks a record against a set of required fields. A field counts
// as missing when it is absent or nil; empty strings pass, since an external
// system that sends "" has still sent the field. The returned slice lists
// the missing field names in stable order.
func Validate(r Record, requiredFields []string) (bool, []string) {
	var missing []string
	for _, field := range requiredFields {
		v, ok := r[field]
		if !ok || v == nil {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return len(missing) == 0, missing
}
