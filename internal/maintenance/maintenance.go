// Package maintenance defines the closed vocabulary of maintenance states a
// crate author can declare through the maintenance badge.
package maintenance

import "fmt"

// Status is a declared maintenance state. The wire form is a hyphenated
// lowercase token.
type Status string

const (
	ActivelyDeveloped    Status = "actively-developed"
	AsIs                 Status = "as-is"
	Deprecated           Status = "deprecated"
	Experimental         Status = "experimental"
	LookingForMaintainer Status = "looking-for-maintainer"
	None                 Status = "none"
	PassivelyMaintained  Status = "passively-maintained"
)

var all = []Status{
	ActivelyDeveloped,
	AsIs,
	Deprecated,
	Experimental,
	LookingForMaintainer,
	None,
	PassivelyMaintained,
}

// All returns every status in declaration order.
func All() []Status {
	out := make([]Status, len(all))
	copy(out, all)
	return out
}

// ParseStatus accepts exactly one of the wire tokens. Matching is
// case-sensitive.
func ParseStatus(s string) (Status, error) {
	for _, status := range all {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown maintenance status %q", s)
}

func (s Status) String() string {
	return string(s)
}
