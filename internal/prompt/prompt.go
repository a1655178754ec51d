// Package prompt turns a request path and the rolling context into the text
// sent to the generation backend.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"genweb/internal/cache"
	"genweb/internal/content"
)

// DefaultDescription is used when no site description file is available.
const DefaultDescription = "A dynamic content generation website"

// ContextMode controls how much of each previous artifact is embedded.
type ContextMode int

const (
	// ContextFull embeds previous artifacts verbatim.
	ContextFull ContextMode = iota
	// ContextExcerpt truncates each artifact to the builder's excerpt size.
	ContextExcerpt
)

var typeInstructions = map[content.Type]string{
	content.HTML: "Generate valid HTML5 content. Include semantic markup and ensure accessibility. " +
		"If you need CSS and JS prefer not to inline, instead create a link to a short file name that describes the use-case.",
	content.CSS: "Generate clean, modern CSS. Use flexbox/grid where appropriate. Include responsive design considerations.",
	content.JS:  "Generate clean JavaScript code. Use modern ES6+ syntax. Ensure error handling and browser compatibility.",
}

// Builder renders generation prompts. It holds no mutable state.
type Builder struct {
	description  string
	mode         ContextMode
	excerptChars int
}

// NewBuilder returns a Builder for the given site description. An empty
// description falls back to DefaultDescription.
func NewBuilder(description string, mode ContextMode, excerptChars int) *Builder {
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}
	return &Builder{
		description:  description,
		mode:         mode,
		excerptChars: excerptChars,
	}
}

// Build returns the prompt for path. The context block is omitted when
// history is empty; entries are rendered in the order given, which the
// cache keeps most-recent-first.
func (b *Builder) Build(path string, ct content.Type, history []cache.ContextEntry) string {
	var sb strings.Builder

	sb.WriteString("You are an AI content generator that creates web content for the following site:\n\n")
	sb.WriteString(b.description)

	if len(history) > 0 {
		sb.WriteString("\n\nContext from previous requests:\n")
		for i, e := range history {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "<file name=%q>\n%s\n</file>", e.Path, b.contextBody(e.Content))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(typeInstructions[ct])

	fmt.Fprintf(&sb, "\n\nGenerate %s content for the path %q.", strings.ToUpper(string(ct)), path)
	fmt.Fprintf(&sb, " Return the complete file inside a single fenced code block that starts with ```%s and ends with ```.", ct)

	return sb.String()
}

func (b *Builder) contextBody(s string) string {
	if b.mode == ContextExcerpt {
		return truncate(s, b.excerptChars)
	}
	return s
}

// LoadDescription reads the site description from path. It returns
// DefaultDescription and the cause when the file is missing, unreadable or
// blank.
func LoadDescription(path string) (string, error) {
	if path == "" {
		return DefaultDescription, fmt.Errorf("no site description file configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultDescription, fmt.Errorf("read site description: %w", err)
	}
	desc := strings.TrimSpace(string(b))
	if desc == "" {
		return DefaultDescription, fmt.Errorf("site description %s is empty", path)
	}
	return desc, nil
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
