package report

import (
	"io"

	"github.com/nao1215/modscan/internal/model"
)

// Writer renders a dataset to its configured destination.
type Writer interface {
	// Write renders ds and returns the number of bytes written.
	Write(ds *model.Dataset) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
