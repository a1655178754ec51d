// Package content maps request paths to the generated content types the
// server knows how to produce.
package content

import (
	"path"
	"strings"
)

// Type is the closed set of generated content types.
type Type string

const (
	HTML Type = "html"
	CSS  Type = "css"
	JS   Type = "js"
)

// Resolve inspects the extension of p, case-insensitively. Anything other
// than .css or .js, including no extension, resolves to HTML.
func Resolve(p string) Type {
	switch strings.ToLower(path.Ext(p)) {
	case ".css":
		return CSS
	case ".js":
		return JS
	default:
		return HTML
	}
}

// MIMEType returns the Content-Type header value for t.
func MIMEType(t Type) string {
	switch t {
	case CSS:
		return "text/css"
	case JS:
		return "application/javascript"
	default:
		return "text/html"
	}
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	return t == HTML || t == CSS || t == JS
}

func (t Type) String() string {
	return string(t)
}
