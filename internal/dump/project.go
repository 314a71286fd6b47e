package dump

import (
	"fmt"
	"strings"
)

// ShapeError reports a raw row whose columns do not match the exact set a
// table decoder expects.
type ShapeError struct {
	Missing   []string
	Extra     []string
	Duplicate []string
	// Headers and Fields are the column and value counts when they differ.
	Headers, Fields int
}

func (e *ShapeError) Error() string {
	if e.Headers != e.Fields {
		return fmt.Sprintf("row has %d fields but table has %d columns", e.Fields, e.Headers)
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing column "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unknown column "+strings.Join(e.Extra, ", "))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate column "+strings.Join(e.Duplicate, ", "))
	}
	return strings.Join(parts, "; ")
}

// Project returns the values of the named columns, in the order of names.
// The header set must be exactly names: any missing, unknown, or repeated
// column is a *ShapeError.
func Project(headers, fields []string, names ...string) ([]string, error) {
	if len(headers) != len(fields) {
		return nil, &ShapeError{Headers: len(headers), Fields: len(fields)}
	}

	want := make(map[string]int, len(names))
	for i, name := range names {
		want[name] = i
	}

	var shape ShapeError
	out := make([]string, len(names))
	seen := make(map[string]bool, len(headers))
	for i, header := range headers {
		if seen[header] {
			shape.Duplicate = append(shape.Duplicate, header)
			continue
		}
		seen[header] = true

		idx, ok := want[header]
		if !ok {
			shape.Extra = append(shape.Extra, header)
			continue
		}
		out[idx] = fields[i]
	}
	for _, name := range names {
		if !seen[name] {
			shape.Missing = append(shape.Missing, name)
		}
	}

	if len(shape.Missing)+len(shape.Extra)+len(shape.Duplicate) > 0 {
		shape.Headers, shape.Fields = len(headers), len(fields)
		return nil, &shape
	}
	return out, nil
}
