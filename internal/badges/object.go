package badges

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// member is one key/value pair of a JSON object in source order. Keys are
// not deduplicated here; each decoder applies its own duplicate rule.
type member struct {
	key string
	raw json.RawMessage
}

// str interprets the value as a JSON string. null reports null=true; any
// other JSON type reports ok=false.
func (m member) str() (s string, null bool, ok bool) {
	raw := bytes.TrimSpace(m.raw)
	if bytes.Equal(raw, []byte("null")) {
		return "", true, true
	}
	if len(raw) == 0 || raw[0] != '"' {
		return "", false, false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false, false
	}
	return s, false, true
}

// parseObject splits an attribute blob into its top-level members. The blob
// must be valid UTF-8 and exactly one JSON object with nothing but
// whitespace after it.
func parseObject(blob string) ([]member, error) {
	// encoding/json would replace invalid bytes with U+FFFD.
	if !utf8.ValidString(blob) {
		return nil, ErrInvalidUTF8
	}

	dec := json.NewDecoder(strings.NewReader(blob))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed attributes: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("malformed attributes: unexpected %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("malformed attributes: value of %q: %w", key, err)
		}
		members = append(members, member{key: key, raw: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("malformed attributes: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("malformed attributes: trailing data after object")
	}
	return members, nil
}
