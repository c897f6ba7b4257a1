package crawler

import "slices"

// RotateOrganizations returns the distinct organizations of orgs in sorted
// order, rotated so that first comes first and the organizations sorting
// before it wrap around to the end:
//
//	RotateOrganizations([]string{"c", "b", "a", "d"}, "b") // [b c d a]
//
// If first is not among orgs the plain sorted order is returned.
func RotateOrganizations(orgs []string, first string) []string {
	sorted := slices.Clone(orgs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	i := slices.Index(sorted, first)
	if i <= 0 {
		return sorted
	}
	return append(sorted[i:len(sorted):len(sorted)], sorted[:i]...)
}
