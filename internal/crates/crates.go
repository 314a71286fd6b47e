// Package crates holds the package identity key shared by every dump table
// that references a crate.
package crates

import (
	"fmt"
	"strconv"
)

// ID is the primary key of a crate in the registry dump.
type ID uint32

// ParseID parses a decimal crate key as it appears in dump columns.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid crate id %q: %w", s, err)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
