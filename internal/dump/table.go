// Package dump reads and writes the CSV tables of a registry database dump.
//
// A dump is a directory of CSV files, one per table, each starting with a
// header row. Tables are read through Table and decoded row by row with a
// FromRecord function, which must use Project so that every table enforces
// an exact column set.
package dump

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Record is one raw data row together with its 1-based line number in the
// source file.
type Record struct {
	Line   int
	Fields []string
}

// Table is a header-driven reader over one CSV table.
type Table struct {
	r       *csv.Reader
	headers []string
}

// NewTable reads the header row from r.
func NewTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	// Column count is validated per row by Project so that a bad row is a
	// row-scoped error instead of a stream failure.
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	return &Table{r: cr, headers: headers}, nil
}

// Headers returns the column names in file order.
func (t *Table) Headers() []string {
	return t.headers
}

// Next returns the next data row, or io.EOF after the last one.
func (t *Table) Next() (Record, error) {
	fields, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read row: %w", err)
	}
	line, _ := t.r.FieldPos(0)
	return Record{Line: line, Fields: fields}, nil
}

// Path returns the file path of a named table inside a dump directory.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".csv")
}

// Exists reports whether the named table is present in dir.
func Exists(dir, name string) bool {
	info, err := os.Stat(Path(dir, name))
	return err == nil && !info.IsDir()
}

// Open opens the named table inside a dump directory. The caller closes the
// returned Closer once it is done with the Table.
func Open(dir, name string) (*Table, io.Closer, error) {
	path := Path(dir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	table, err := NewTable(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, file, nil
}
