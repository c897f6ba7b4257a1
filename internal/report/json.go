package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/modscan/internal/model"
)

// JSONWriter exports the dataset as a JSON document.
// Records appear in catalog order so the output is stable across runs.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Export is the JSON document written by JSONWriter.
type Export struct {
	// Organizations lists the distinct organizations in the dataset.
	Organizations []string `json:"organizations"`

	// Count is the number of records.
	Count int `json:"count"`

	// Digest fingerprints the record contents; see model.Dataset.Digest.
	Digest string `json:"digest"`

	// Records holds every record in catalog order.
	Records []model.Record `json:"records"`
}

// Write exports every record of ds.
func (w *JSONWriter) Write(ds *model.Dataset) (int, error) {
	return w.writeJSON(Export{
		Organizations: ds.Organizations(),
		Count:         ds.Len(),
		Digest:        ds.Digest(),
		Records:       ds.Records(),
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
