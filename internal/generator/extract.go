package generator

import (
	"regexp"
	"strings"

	"genweb/internal/content"
)

var fencePatterns = map[content.Type]*regexp.Regexp{
	content.HTML: fence("html"),
	content.CSS:  fence("css"),
	content.JS:   fence("js|javascript"),
}

// fence matches a triple-backtick block whose info string is one of tags.
func fence(tags string) *regexp.Regexp {
	return regexp.MustCompile("(?is)```(?:" + tags + ")[ \\t]*\\r?\\n(.*?)```")
}

// Extract returns the trimmed interior of the first fenced block tagged
// with ct. It returns ErrExtractionFailed when no such block exists.
func Extract(reply string, ct content.Type) (string, error) {
	re, ok := fencePatterns[ct]
	if !ok {
		return "", ErrExtractionFailed
	}
	m := re.FindStringSubmatch(reply)
	if m == nil {
		return "", ErrExtractionFailed
	}
	return strings.TrimSpace(m[1]), nil
}
