package crawler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

// UnclassifiedType is the badge_type written for README badges that match
// no provider. The decoder turns these rows into Other kinds.
const UnclassifiedType = "readme-badge"

//go:embed providers.jsonc
var defaultCatalog []byte

// Provider maps one badge image URL pattern to a badge_type.
type Provider struct {
	BadgeType      string            `json:"badge_type"`
	Pattern        string            `json:"pattern"`
	Query          map[string]string `json:"query,omitempty"`
	Fixed          map[string]string `json:"fixed,omitempty"`
	ShieldsEscaped bool              `json:"shields_escaped,omitempty"`

	re *regexp.Regexp
}

// Catalog is an ordered list of providers.
type Catalog struct {
	Providers []*Provider `json:"providers"`
}

var placeholderRegex = regexp.MustCompile(`\{(_?[a-z][a-z0-9_]*)(:path)?\}`)

// compile turns a pattern such as https://circleci.com/gh/{repository:path}.svg
// into an anchored regular expression with one named group per placeholder.
func (p *Provider) compile() error {
	segment := `[^/?#]+`
	if p.ShieldsEscaped {
		segment = `(?:[^-/?#]|--)+`
	}

	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRegex.FindAllStringSubmatchIndex(p.Pattern, -1) {
		b.WriteString(regexp.QuoteMeta(p.Pattern[last:loc[0]]))
		name := p.Pattern[loc[2]:loc[3]]
		if loc[4] >= 0 {
			fmt.Fprintf(&b, "(?P<%s>%s/%s)", name, segment, segment)
		} else {
			fmt.Fprintf(&b, "(?P<%s>%s)", name, segment)
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(p.Pattern[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return fmt.Errorf("provider %s: invalid pattern %q: %w", p.BadgeType, p.Pattern, err)
	}
	p.re = re
	return nil
}

// ParseCatalog parses a JSONC provider catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(jsonc.ToJSON(data), &catalog); err != nil {
		return nil, fmt.Errorf("parsing provider catalog: %w", err)
	}
	for _, p := range catalog.Providers {
		if p.BadgeType == "" || p.Pattern == "" {
			return nil, fmt.Errorf("provider catalog: badge_type and pattern are required")
		}
		if err := p.compile(); err != nil {
			return nil, err
		}
	}
	return &catalog, nil
}

// LoadCatalog reads a catalog file, or returns the built-in catalog when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Classify returns the badge_type and attributes for a README badge. Badges
// matching no provider get UnclassifiedType with their raw URLs and alt
// text as attributes.
func (c *Catalog) Classify(b readmeBadge) (string, map[string]string) {
	if u, err := url.Parse(b.ImageURL); err == nil && u.Host != "" {
		target := "https://" + strings.ToLower(u.Host) + u.Path
		for _, p := range c.Providers {
			if attrs, ok := p.match(target, u.Query()); ok {
				return p.BadgeType, attrs
			}
		}
	}

	return UnclassifiedType, map[string]string{
		"image_url":  b.ImageURL,
		"target_url": b.TargetURL,
		"alt_text":   b.AltText,
	}
}

func (p *Provider) match(target string, query url.Values) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(target)
	if m == nil {
		return nil, false
	}

	attrs := make(map[string]string)
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		value := m[i]
		if p.ShieldsEscaped {
			value = unescapeShields(value)
		}
		attrs[name] = value
	}
	for param, attr := range p.Query {
		if v := query.Get(param); v != "" {
			attrs[attr] = v
		}
	}
	for attr, v := range p.Fixed {
		attrs[attr] = v
	}
	return attrs, true
}

func unescapeShields(s string) string {
	return strings.NewReplacer("--", "-", "__", "_").Replace(s)
}
