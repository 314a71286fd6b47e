// Package reserved decodes the reserved_crate_names dump table.
package reserved

import (
	"strings"

	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

const Table = "reserved_crate_names"

// Row is one reserved crate name.
type Row struct {
	Name string
}

// FromRecord decodes a reserved_crate_names.csv row.
func FromRecord(headers, fields []string) (Row, error) {
	cols, err := dump.Project(headers, fields, "name")
	if err != nil {
		return Row{}, err
	}
	return Row{Name: cols[0]}, nil
}

// Set answers membership queries over reserved names. Crate names compare
// case-insensitively with '-' and '_' treated as equal.
type Set map[string]struct{}

// NewSet builds a Set from decoded rows.
func NewSet(rows []Row) Set {
	s := make(Set, len(rows))
	for _, row := range rows {
		s[canonical(row.Name)] = struct{}{}
	}
	return s
}

// contains reports whether name is reserved.
func (s Set) contains(name string) bool {
	_, ok := s[canonical(name)]
	return ok
}

func canonical(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
