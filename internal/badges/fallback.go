package badges

import "fmt"

// decodeOther captures any tag with its attributes as a plain string map.
//
// A repeated key is an error, not last-write-wins. null values are errors
// too since the map cannot tell null apart from a string.
func decodeOther(tag, attributes string) (Other, error) {
	members, err := parseObject(attributes)
	if err != nil {
		return Other{}, err
	}

	out := make(map[string]string, len(members))
	for _, m := range members {
		if _, dup := out[m.key]; dup {
			return Other{}, fmt.Errorf("%w %q", ErrDuplicateAttribute, m.key)
		}
		s, null, ok := m.str()
		if !ok || null {
			return Other{}, fmt.Errorf("attribute %q: %w", m.key, ErrNonStringAttribute)
		}
		out[m.key] = s
	}
	return Other{Type: tag, Values: out}, nil
}
