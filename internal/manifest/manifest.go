package manifest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Manifest holds the manifest fields used by the catalog.
type Manifest struct {
	// Name is the display name. It may be empty but must be declared.
	Name string
	// Summary is the one-line description with surrounding space trimmed.
	Summary string
}

// Parse parses manifest content. The content must be UTF-8.
func Parse(data []byte) (*Manifest, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrSyntax)
	}
	v, err := ParseLiteral(string(data))
	if err != nil {
		return nil, err
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, v)
	}

	name, ok := fields["name"].(string)
	if !ok {
		return nil, ErrMissingName
	}
	summary, _ := fields["summary"].(string)

	return &Manifest{
		Name:    name,
		Summary: strings.TrimSpace(summary),
	}, nil
}
