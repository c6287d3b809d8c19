package driver

import "strings"

var markupWhitespace = strings.NewReplacer("\n", "", " ", "")

// NormalizeMarkup removes newlines and spaces, since a browser does not reproduce the
// whitespace of the source it rendered. Compare both sides after normalizing.
func NormalizeMarkup(s string) string {
	return markupWhitespace.Replace(s)
}

// WrapHTML returns the document a browser produces when it renders a body fragment that
// has no html, head or body element of its own.
func WrapHTML(body string) string {
	return "<html><head></head><body>" + body + "</body></html>"
}
