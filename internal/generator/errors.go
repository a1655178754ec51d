package generator

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendFatal marks a backend failure that is not worth retrying.
	ErrBackendFatal = errors.New("backend failure")

	// ErrExtractionFailed marks a reply without the expected fenced block.
	ErrExtractionFailed = errors.New("reply has no fenced block for content type")

	// ErrGenerationExhausted marks a generation that stayed rate limited
	// through every attempt.
	ErrGenerationExhausted = errors.New("generation attempts exhausted")
)

// Kind classifies a generation failure.
type Kind int

const (
	KindBackendFatal Kind = iota + 1
	KindExtractionFailed
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindBackendFatal:
		return "backend_fatal"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindBackendFatal:
		return ErrBackendFatal
	case KindExtractionFailed:
		return ErrExtractionFailed
	case KindExhausted:
		return ErrGenerationExhausted
	default:
		return nil
	}
}

// Error is returned by Generate. Err holds the last underlying cause.
type Error struct {
	Kind     Kind
	Path     string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generate %s: %s after %d attempt(s)", e.Path, e.Kind, e.Attempts)
	}
	return fmt.Sprintf("generate %s: %s after %d attempt(s): %v", e.Path, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}
