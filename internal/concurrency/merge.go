package concurrency

import "sort"

// Conflict records a field that both writers changed to different values.
type Conflict struct {
	Field  string
	Base   string
	Ours   string
	Theirs string
}

// MergeResult is the outcome of a three-way field merge.
type MergeResult struct {
	// Merged holds the winning value for every field present in any input.
	Merged map[string]string
	// Conflicts lists fields where both sides diverged from the base.
	// The local write wins those fields; the conflict is kept for the audit
	// trail so the overwrite is never silent.
	Conflicts []Conflict
}

// MergeFields reconciles a local write (ours) with a concurrent write
// (theirs) against their common ancestor (base). A field changed by only one
// side takes that side's value; a field changed by both to the same value is
// clean; divergent changes keep ours and record a Conflict.
func MergeFields(base, ours, theirs map[string]string) MergeResult {
	fields := map[string]struct{}{}
	for k := range base {
		fields[k] = struct{}{}
	}
	for k := range ours {
		fields[k] = struct{}{}
	}
	for k := range theirs {
		fields[k] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	result := MergeResult{Merged: make(map[string]string, len(names))}
	for _, field := range names {
		b := base[field]
		o, ourChange := valueChanged(base, ours, field)
		t, theirChange := valueChanged(base, theirs, field)

		switch {
		case ourChange && theirChange && o != t:
			result.Merged[field] = o
			result.Conflicts = append(result.Conflicts, Conflict{
				Field: field, Base: b, Ours: o, Theirs: t,
			})
		case ourChange:
			result.Merged[field] = o
		case theirChange:
			result.Merged[field] = t
		default:
			result.Merged[field] = b
		}
	}
	return result
}

func valueChanged(base, side map[string]string, field string) (string, bool) {
	v, ok := side[field]
	if !ok {
		// Absent on this side means the side did not touch the field.
		return base[field], false
	}
	return v, v != base[field]
}
