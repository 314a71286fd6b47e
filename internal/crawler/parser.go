package crawler

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// readmeBadge is a linked image found in a README.
type readmeBadge struct {
	AltText   string
	ImageURL  string
	TargetURL string
}

// htmlBadgeRegex matches the common <a href="..."><img src="..." alt="..."></a>
// form, which goldmark leaves as raw HTML.
var htmlBadgeRegex = regexp.MustCompile(`<a\s+href="([^"]+)"[^>]*>\s*<img\s+src="([^"]+)"(?:\s+alt="([^"]*)")?[^>]*>\s*</a>`)

// extractBadges parses README content and returns its badges in document
// order, Markdown badges first.
func extractBadges(content []byte) []readmeBadge {
	var found []readmeBadge

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(content))

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		for child := link.FirstChild(); child != nil; child = child.NextSibling() {
			if img, ok := child.(*ast.Image); ok {
				found = append(found, readmeBadge{
					AltText:   string(img.Text(content)),
					ImageURL:  string(img.Destination),
					TargetURL: string(link.Destination),
				})
			}
		}
		return ast.WalkContinue, nil
	})

	for _, match := range htmlBadgeRegex.FindAllSubmatch(content, -1) {
		found = append(found, readmeBadge{
			TargetURL: string(match[1]),
			ImageURL:  string(match[2]),
			AltText:   string(match[3]),
		})
	}

	return found
}
