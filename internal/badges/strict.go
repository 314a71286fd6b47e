package badges

// decodeStrict decodes attributes against one known shape. It reports false
// on any mismatch: malformed blob, unknown attribute, duplicate attribute
// (including both spellings of an aliased one), non-string value, null or
// missing required attribute, or a value its kind rejects.
// A mismatch is never an error; the caller falls back to decodeOther.
func decodeStrict(s *shape, attributes string) (Kind, bool) {
	members, err := parseObject(attributes)
	if err != nil {
		return nil, false
	}

	v := make(values, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		f, ok := s.lookup(m.key)
		if !ok {
			return nil, false
		}
		if seen[f.name] {
			return nil, false
		}
		seen[f.name] = true

		str, null, ok := m.str()
		if !ok {
			return nil, false
		}
		if null {
			if f.required {
				return nil, false
			}
			continue
		}
		v[f.name] = str
	}

	for _, f := range s.fields {
		if _, ok := v[f.name]; f.required && !ok {
			return nil, false
		}
	}
	return s.build(v)
}
