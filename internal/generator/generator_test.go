package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"genweb/internal/cache"
	"genweb/internal/content"
	"genweb/internal/llm"
	"genweb/internal/logs"
	"genweb/internal/metrics"
	"genweb/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	text string
	err  error
}

// scriptedBackend returns replies in order and repeats the last one.
type scriptedBackend struct {
	mu      sync.Mutex
	replies []reply
	calls   []time.Time
	prompts []string
}

func (b *scriptedBackend) Complete(ctx context.Context, p string, maxTokens int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, time.Now())
	b.prompts = append(b.prompts, p)

	i := len(b.calls) - 1
	if i >= len(b.replies) {
		i = len(b.replies) - 1
	}
	return b.replies[i].text, b.replies[i].err
}

func (b *scriptedBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func rateLimited() error {
	return &llm.BackendError{
		Provider:    "anthropic",
		StatusCode:  http.StatusTooManyRequests,
		Message:     "slow down",
		RateLimited: true,
		Err:         llm.ErrRateLimited,
	}
}

func newTestGenerator(b llm.Backend, base time.Duration) (*Generator, *metrics.Registry) {
	reg := metrics.NewRegistry()
	g := New(
		b,
		prompt.NewBuilder("test site", prompt.ContextFull, 0),
		Options{Retry: RetryPolicy{MaxAttempts: 3, BaseDelay: base}},
		logs.NewLogger(100, logs.DEBUG, nil),
		reg,
	)
	return g, reg
}

func TestGenerate_Success(t *testing.T) {
	b := &scriptedBackend{replies: []reply{{text: "```html\n<p>hi</p>\n```"}}}
	g, reg := newTestGenerator(b, time.Millisecond)

	body, err := g.Generate(context.Background(), "/", content.HTML, nil)

	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", body)
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, int64(1), reg.Get(metrics.GenerationSuccessTotal))
	assert.Equal(t, int64(0), reg.Get(metrics.GenerationRetriesTotal))
}

func TestGenerate_PromptCarriesContext(t *testing.T) {
	b := &scriptedBackend{replies: []reply{{text: "```css\na{}\n```"}}}
	g, _ := newTestGenerator(b, time.Millisecond)

	history := []cache.ContextEntry{{Path: "/index.html", Content: "<p>home</p>"}}
	_, err := g.Generate(context.Background(), "/site.css", content.CSS, history)
	require.NoError(t, err)

	require.Len(t, b.prompts, 1)
	assert.Contains(t, b.prompts[0], `<file name="/index.html">`)
	assert.Contains(t, b.prompts[0], `"/site.css"`)
}

func TestGenerate_RetriesRateLimitThenSucceeds(t *testing.T) {
	const base = 20 * time.Millisecond

	b := &scriptedBackend{replies: []reply{
		{err: rateLimited()},
		{err: rateLimited()},
		{text: "```js\nrun();\n```"},
	}}
	g, reg := newTestGenerator(b, base)

	start := time.Now()
	body, err := g.Generate(context.Background(), "/app.js", content.JS, nil)

	require.NoError(t, err)
	assert.Equal(t, "run();", body)
	require.Equal(t, 3, b.callCount())

	// base before attempt 2, 2*base before attempt 3
	assert.GreaterOrEqual(t, b.calls[1].Sub(b.calls[0]), base)
	assert.GreaterOrEqual(t, b.calls[2].Sub(b.calls[1]), 2*base)
	assert.GreaterOrEqual(t, b.calls[2].Sub(start), 3*base)

	assert.Equal(t, int64(3), reg.Get(metrics.GenerationAttemptsTotal))
	assert.Equal(t, int64(2), reg.Get(metrics.GenerationRetriesTotal))
}

func TestGenerate_ExhaustedAfterMaxAttempts(t *testing.T) {
	b := &scriptedBackend{replies: []reply{{err: rateLimited()}}}
	g, reg := newTestGenerator(b, time.Millisecond)

	_, err := g.Generate(context.Background(), "/", content.HTML, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.ErrorIs(t, err, llm.ErrRateLimited, "last cause is kept")

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindExhausted, gerr.Kind)
	assert.Equal(t, 3, gerr.Attempts)
	assert.Equal(t, 3, b.callCount())
	assert.Equal(t, int64(1), reg.Get(metrics.GenerationExhaustedTotal))
	assert.Equal(t, int64(1), reg.Get(metrics.GenerationFailuresTotal))
}

func TestGenerate_FatalErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"auth", &llm.BackendError{Provider: "anthropic", StatusCode: http.StatusUnauthorized, Message: "bad key"}},
		{"server_error", &llm.BackendError{Provider: "openai", StatusCode: http.StatusInternalServerError, Message: "boom"}},
		{"network", &llm.BackendError{Provider: "anthropic", Message: "request failed", Err: errors.New("connection refused")}},
		{"shape", llm.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &scriptedBackend{replies: []reply{{err: tt.err}}}
			g, _ := newTestGenerator(b, time.Millisecond)

			_, err := g.Generate(context.Background(), "/", content.HTML, nil)

			assert.ErrorIs(t, err, ErrBackendFatal)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, b.callCount())
		})
	}
}

func TestGenerate_ExtractionFailureIsNotRetried(t *testing.T) {
	b := &scriptedBackend{replies: []reply{{text: "Sorry, I can't help with that."}}}
	g, reg := newTestGenerator(b, time.Millisecond)

	_, err := g.Generate(context.Background(), "/", content.HTML, nil)

	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.NotErrorIs(t, err, ErrBackendFatal)
	assert.Equal(t, 1, b.callCount())
	assert.Equal(t, int64(1), reg.Get(metrics.GenerationExtractFailTotal))
}

func TestGenerate_CancelledDuringRetryWait(t *testing.T) {
	b := &scriptedBackend{replies: []reply{{err: rateLimited()}}}
	g, _ := newTestGenerator(b, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, "/", content.HTML, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, b.callCount())
}

type slowBackend struct{}

func (slowBackend) Complete(ctx context.Context, _ string, _ int) (string, error) {
	<-ctx.Done()
	return "", &llm.BackendError{Provider: "anthropic", Message: "request failed", Err: ctx.Err()}
}

func TestGenerate_AttemptTimeout(t *testing.T) {
	g := New(
		slowBackend{},
		prompt.NewBuilder("site", prompt.ContextFull, 0),
		Options{AttemptTimeout: 10 * time.Millisecond},
		logs.NewLogger(10, logs.INFO, nil),
		metrics.NewRegistry(),
	)

	_, err := g.Generate(context.Background(), "/", content.HTML, nil)

	assert.ErrorIs(t, err, ErrBackendFatal)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindExhausted, Path: "/x", Attempts: 3, Err: llm.ErrRateLimited}
	assert.True(t, strings.Contains(err.Error(), "exhausted after 3 attempt(s)"))
	assert.Equal(t, "unknown", Kind(0).String())
}
