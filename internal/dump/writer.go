package dump

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Writer emits a CSV table in dump format: a header row followed by data
// rows with the same column count.
type Writer struct {
	w       *csv.Writer
	columns int
}

// NewWriter writes the header row to w.
func NewWriter(w io.Writer, headers ...string) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	return &Writer{w: cw, columns: len(headers)}, nil
}

// Write appends one data row.
func (w *Writer) Write(fields ...string) error {
	if len(fields) != w.columns {
		return fmt.Errorf("row has %d fields but table has %d columns", len(fields), w.columns)
	}
	return w.w.Write(fields)
}

// Flush writes any buffered rows and reports the first write error.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
