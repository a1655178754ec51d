package cache

import (
	"time"

	"genweb/internal/content"
)

// Entry is a generated artifact cached under its request path.
//
// Entries are replaced wholesale on regeneration, never mutated in place.
type Entry struct {
	Path        string       `json:"path"`
	Content     string       `json:"-"`
	ContentType content.Type `json:"content_type"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsExpired reports whether the entry has outlived ttl at the given time.
func (e Entry) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}

// ContextEntry is one slot of the rolling generation context.
type ContextEntry struct {
	Path      string
	Content   string
	CreatedAt time.Time
}
