package crawler

import (
	"slices"
	"testing"
)

func TestRotateOrganizations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		orgs  []string
		first string
		want  []string
	}{
		{name: "rotates to the checkpointed organization", orgs: []string{"c", "b", "a", "d"}, first: "b", want: []string{"b", "c", "d", "a"}},
		{name: "first organization already leads", orgs: []string{"c", "b", "a"}, first: "a", want: []string{"a", "b", "c"}},
		{name: "last organization leads", orgs: []string{"c", "b", "a"}, first: "c", want: []string{"c", "a", "b"}},
		{name: "unknown organization keeps sorted order", orgs: []string{"c", "b", "a", "d"}, first: "x", want: []string{"a", "b", "c", "d"}},
		{name: "empty first keeps sorted order", orgs: []string{"b", "a"}, first: "", want: []string{"a", "b"}},
		{name: "duplicates are removed", orgs: []string{"b", "a", "b"}, first: "b", want: []string{"b", "a"}},
		{name: "empty input", orgs: nil, first: "a", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := RotateOrganizations(tt.orgs, tt.first)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()

		orgs := []string{"c", "b", "a"}
		RotateOrganizations(orgs, "b")
		if !slices.Equal(orgs, []string{"c", "b", "a"}) {
			t.Errorf("expected input to be unchanged, got %v", orgs)
		}
	})
}
