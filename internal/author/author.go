// Package author extracts a structured author reference from the markdown-style
// author cell of an export, e.g. "[Jane Doe](https://www.amazon.com/stores/Jane-Doe/author/B0ABCDEFGH)".
package author

import "regexp"

// Unknown is the name used when the author cell is empty.
const Unknown = "Unknown Author"

var (
	linkPattern      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	catalogIDPattern = regexp.MustCompile(`/([A-Z0-9]{10,})/?$`)
)

// Ref is an author reference. Empty URL or CatalogID means absent.
type Ref struct {
	Name      string
	URL       string
	CatalogID string
}

// Extract parses text. Only the first link is used; input cells name a single author.
// Text without a link is returned as the name.
func Extract(text string) Ref {
	if text == "" {
		return Ref{Name: Unknown}
	}

	m := linkPattern.FindStringSubmatch(text)
	if m == nil {
		return Ref{Name: text}
	}

	ref := Ref{Name: m[1], URL: m[2]}
	if id := catalogIDPattern.FindStringSubmatch(ref.URL); id != nil {
		ref.CatalogID = id[1]
	}
	return ref
}
