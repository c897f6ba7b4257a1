package manifest

import (
	"errors"
	"reflect"
	"testing"
)

// TestParse verifies extraction of the catalog fields from real-looking manifests.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("typical manifest with comments and trailing commas", func(t *testing.T) {
		t.Parallel()

		src := `# -*- coding: utf-8 -*-
# Copyright 2020 Someone
# License AGPL-3.0 or later (http://www.gnu.org/licenses/agpl).
{
    "name": "Sale Margin",
    "summary": """
        Show the margin
        on sale orders
    """,
    "version": "14.0.1.0.0",
    'license': 'AGPL-3',
    "depends": ["sale", 'account',],
    "data": [
        "views/sale_order.xml",
    ],
    "installable": True,
}
`
		m, err := Parse([]byte(src))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Name != "Sale Margin" {
			t.Errorf("expected name 'Sale Margin', got %q", m.Name)
		}
		want := "Show the margin\n        on sale orders"
		if m.Summary != want {
			t.Errorf("expected trimmed summary %q, got %q", want, m.Summary)
		}
	})

	t.Run("summary is optional", func(t *testing.T) {
		t.Parallel()

		m, err := Parse([]byte(`{'name': 'Base'}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Summary != "" {
			t.Errorf("expected empty summary, got %q", m.Summary)
		}
	})

	t.Run("missing name returns ErrMissingName", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte(`{'summary': 'no name'}`))
		if !errors.Is(err, ErrMissingName) {
			t.Errorf("expected ErrMissingName, got %v", err)
		}
	})

	t.Run("non-string name returns ErrMissingName", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte(`{'name': 42}`))
		if !errors.Is(err, ErrMissingName) {
			t.Errorf("expected ErrMissingName, got %v", err)
		}
	})

	t.Run("empty name is accepted", func(t *testing.T) {
		t.Parallel()

		m, err := Parse([]byte(`{'name': '', 'summary': 'Unnamed'}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Name != "" {
			t.Errorf("expected empty name, got %q", m.Name)
		}
		if m.Summary != "Unnamed" {
			t.Errorf("expected summary 'Unnamed', got %q", m.Summary)
		}
	})

	t.Run("invalid UTF-8 returns ErrSyntax", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte("{'name': '\xff\xfe'}"))
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("expected ErrSyntax, got %v", err)
		}
	})

	t.Run("escaped code points are valid", func(t *testing.T) {
		t.Parallel()

		m, err := Parse([]byte(`{'name': 'Caf\xe9'}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Name != "Caf\u00e9" {
			t.Errorf("expected 'Caf\u00e9', got %q", m.Name)
		}
	})

	t.Run("list manifest returns ErrNotMapping", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte(`['name']`))
		if !errors.Is(err, ErrNotMapping) {
			t.Errorf("expected ErrNotMapping, got %v", err)
		}
	})

	t.Run("code returns ErrSyntax", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte(`{'name': __import__('os').getcwd()}`))
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("expected ErrSyntax, got %v", err)
		}
	})
}

// TestParseLiteral covers the literal grammar.
func TestParseLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want any
	}{
		{name: "single quoted string", src: `'abc'`, want: "abc"},
		{name: "double quoted string", src: `"abc"`, want: "abc"},
		{name: "triple single quoted string", src: "'''a\nb'''", want: "a\nb"},
		{name: "quote inside other quotes", src: `"it's"`, want: "it's"},
		{name: "escaped quote", src: `'it\'s'`, want: "it's"},
		{name: "common escapes", src: `'a\tb\nc\\d'`, want: "a\tb\nc\\d"},
		{name: "hex escape", src: `'\x41'`, want: "A"},
		{name: "unicode escape", src: `'caf\u00e9'`, want: "café"},
		{name: "long unicode escape", src: `'\U0001F600'`, want: "\U0001F600"},
		{name: "octal escape", src: `'\101'`, want: "A"},
		{name: "unknown escape kept", src: `'\d'`, want: `\d`},
		{name: "raw string keeps backslashes", src: `r'\n\d'`, want: `\n\d`},
		{name: "unicode prefix", src: `u'x'`, want: "x"},
		{name: "utf8 content", src: `'日本語'`, want: "日本語"},
		{name: "implicit concatenation", src: "('a' \"b\"\n 'c')", want: "abc"},
		{name: "line continuation inside string", src: "'a\\\nb'", want: "ab"},
		{name: "integer", src: `42`, want: int64(42)},
		{name: "negative integer", src: `-7`, want: int64(-7)},
		{name: "hex integer", src: `0x1F`, want: int64(31)},
		{name: "underscored integer", src: `1_000`, want: int64(1000)},
		{name: "float", src: `1.5`, want: 1.5},
		{name: "exponent float", src: `2e-1`, want: 0.2},
		{name: "True", src: `True`, want: true},
		{name: "False", src: `False`, want: false},
		{name: "None", src: `None`, want: nil},
		{name: "empty list", src: `[]`, want: []any{}},
		{name: "list", src: `[1, 'a']`, want: []any{int64(1), "a"}},
		{name: "empty tuple", src: `()`, want: []any{}},
		{name: "single element tuple", src: `(1,)`, want: []any{int64(1)}},
		{name: "parenthesized value", src: `(1)`, want: int64(1)},
		{name: "set", src: `{'a', 'b'}`, want: []any{"a", "b"}},
		{name: "empty dict", src: `{}`, want: map[string]any{}},
		{name: "nested dict", src: `{'a': {'b': [None]}}`, want: map[string]any{"a": map[string]any{"b": []any{nil}}}},
		{name: "integer key", src: `{1: 'x'}`, want: map[string]any{"1": "x"}},
		{name: "duplicate key keeps last", src: `{'a': 1, 'a': 2}`, want: map[string]any{"a": int64(2)}},
		{name: "byte order mark", src: "\ufeff{'a': 1}", want: map[string]any{"a": int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLiteral(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

// TestParseLiteralErrors verifies that invalid input fails with ErrSyntax.
func TestParseLiteralErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "empty input", src: ""},
		{name: "only a comment", src: "# nothing"},
		{name: "unterminated string", src: `'abc`},
		{name: "unterminated triple string", src: `"""abc""`},
		{name: "newline in single quoted string", src: "'a\nb'"},
		{name: "trailing backslash", src: `'abc\`},
		{name: "missing closing brace", src: `{'a': 1`},
		{name: "missing comma", src: `[1 2]`},
		{name: "missing colon", src: `{'a': 1, 'b'}`},
		{name: "function call", src: `dict(a=1)`},
		{name: "f-string", src: `f'{x}'`},
		{name: "trailing content", src: `{} {}`},
		{name: "complex number", src: `1j`},
		{name: "bad hex escape", src: `'\xZZ'`},
		{name: "dict key", src: `{{}: 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseLiteral(tt.src)
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	t.Parallel()

	_, err := ParseLiteral("{\n  'a': oops,\n}")
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if syntaxErr.Line != 2 || syntaxErr.Column != 8 {
		t.Errorf("expected line 2 column 8, got line %d column %d", syntaxErr.Line, syntaxErr.Column)
	}
}

func TestParseLiteralDepthLimit(t *testing.T) {
	t.Parallel()

	src := ""
	for range maxDepth + 1 {
		src += "["
	}
	_, err := ParseLiteral(src)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
}
