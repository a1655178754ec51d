package site

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"genweb/internal/cache"
	"genweb/internal/content"
	"genweb/internal/generator"
	"genweb/internal/llm"
	"genweb/internal/logs"
	"genweb/internal/metrics"
	"genweb/internal/prompt"
	"genweb/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers every prompt with a fenced block of the requested
// type and records the prompts it saw.
type fakeBackend struct {
	mu      sync.Mutex
	prompts []string
	delay   time.Duration
	err     error
}

func (b *fakeBackend) Complete(ctx context.Context, p string, _ int) (string, error) {
	b.mu.Lock()
	b.prompts = append(b.prompts, p)
	n := len(b.prompts)
	b.mu.Unlock()

	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.err != nil {
		return "", b.err
	}

	tag := "html"
	switch {
	case strings.Contains(p, "Generate CSS content"):
		tag = "css"
	case strings.Contains(p, "Generate JS content"):
		tag = "js"
	}
	return fmt.Sprintf("```%s\ngenerated #%d\n```", tag, n), nil
}

func (b *fakeBackend) seen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

type fixture struct {
	svc     *Service
	backend *fakeBackend
	cache   *cache.Cache
	metrics *metrics.Registry
	logger  *logs.Logger
}

func newFixture(t *testing.T, maxRequests int, b *fakeBackend) fixture {
	t.Helper()

	reg := metrics.NewRegistry()
	logger := logs.NewLogger(100, logs.DEBUG, nil)
	c := cache.New(time.Hour, 10, reg)
	gen := generator.New(
		b,
		prompt.NewBuilder("A test site", prompt.ContextFull, 0),
		generator.Options{Retry: generator.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}},
		logger,
		reg,
	)
	svc := NewService(ratelimit.NewLimiter(time.Minute, maxRequests, reg), c, gen, logger, reg)

	return fixture{svc: svc, backend: b, cache: c, metrics: reg, logger: logger}
}

func TestHandle_GeneratesThenServesFromCache(t *testing.T) {
	f := newFixture(t, 60, &fakeBackend{})

	first := f.svc.Handle(context.Background(), "/index.html", "10.0.0.1")
	require.Equal(t, StatusOK, first.Status)
	assert.Equal(t, "generated #1", first.Body)
	assert.Equal(t, "text/html", first.MIMEType)
	assert.False(t, first.CacheHit)

	prompts := f.backend.seen()
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "previous requests", "first generation has no context")

	second := f.svc.Handle(context.Background(), "/index.html", "10.0.0.1")
	require.Equal(t, StatusOK, second.Status)
	assert.Equal(t, first.Body, second.Body)
	assert.True(t, second.CacheHit)
	assert.Len(t, f.backend.seen(), 1, "cache hit makes no backend call")
}

func TestHandle_ContextFeedsLaterGenerations(t *testing.T) {
	f := newFixture(t, 60, &fakeBackend{})

	require.Equal(t, StatusOK, f.svc.Handle(context.Background(), "/index.html", "c").Status)
	css := f.svc.Handle(context.Background(), "/style.css", "c")
	require.Equal(t, StatusOK, css.Status)
	assert.Equal(t, "text/css", css.MIMEType)

	prompts := f.backend.seen()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "Context from previous requests:")
	assert.Contains(t, prompts[1], "<file name=\"/index.html\">\ngenerated #1\n</file>")

	ctx := f.cache.Context()
	require.Len(t, ctx, 2)
	assert.Equal(t, "/style.css", ctx[0].Path)
}

func TestHandle_RateLimited(t *testing.T) {
	f := newFixture(t, 2, &fakeBackend{})

	assert.Equal(t, StatusOK, f.svc.Handle(context.Background(), "/a", "client").Status)
	assert.Equal(t, StatusOK, f.svc.Handle(context.Background(), "/a", "client").Status)

	out := f.svc.Handle(context.Background(), "/a", "client")
	assert.Equal(t, StatusRateLimited, out.Status)
	assert.Empty(t, out.Body)

	assert.Equal(t, StatusOK, f.svc.Handle(context.Background(), "/a", "other").Status, "keys are independent")
	assert.Len(t, f.backend.seen(), 1)
}

func TestHandle_RejectedRequestDoesNotGenerate(t *testing.T) {
	f := newFixture(t, 1, &fakeBackend{})

	f.svc.Handle(context.Background(), "/a", "client")
	out := f.svc.Handle(context.Background(), "/b", "client")

	assert.Equal(t, StatusRateLimited, out.Status)
	assert.Len(t, f.backend.seen(), 1)
	_, ok := f.cache.Get("/b")
	assert.False(t, ok)
}

func TestHandle_GenerationFailureIsInternalError(t *testing.T) {
	b := &fakeBackend{err: &llm.BackendError{
		Provider:    "anthropic",
		StatusCode:  http.StatusTooManyRequests,
		Message:     "secret upstream detail",
		RateLimited: true,
		Err:         llm.ErrRateLimited,
	}}
	f := newFixture(t, 60, b)

	out := f.svc.Handle(context.Background(), "/index.html", "c")

	assert.Equal(t, StatusInternalError, out.Status)
	assert.Empty(t, out.Body)
	assert.Len(t, b.seen(), 3)
	assert.Equal(t, 0, f.cache.Len(), "failures are not cached")

	last := f.logger.GetLast(1)
	require.Len(t, last, 1)
	assert.Contains(t, last[0].Message, "exhausted")
	assert.Contains(t, last[0].Message, "3 attempt(s)")
}

func TestHandle_ConcurrentMissesShareOneGeneration(t *testing.T) {
	f := newFixture(t, 100, &fakeBackend{delay: 50 * time.Millisecond})

	const n = 8
	outcomes := make([]Outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.svc.Handle(context.Background(), "/busy.html", fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.backend.seen(), 1)
	for _, o := range outcomes {
		assert.Equal(t, StatusOK, o.Status)
		assert.Equal(t, "generated #1", o.Body)
	}
	assert.Len(t, f.cache.Context(), 1)
}

func TestHandle_CancelledCallerStillCachesResult(t *testing.T) {
	f := newFixture(t, 60, &fakeBackend{delay: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.svc.Handle(ctx, "/page.html", "c")
	assert.Equal(t, StatusOK, out.Status)

	_, ok := f.cache.Get("/page.html")
	assert.True(t, ok)
}

func TestServe_MimeFollowsPath(t *testing.T) {
	f := newFixture(t, 60, &fakeBackend{})

	tests := []struct {
		path string
		want string
	}{
		{"/", content.MIMEType(content.HTML)},
		{"/about", content.MIMEType(content.HTML)},
		{"/theme.CSS", content.MIMEType(content.CSS)},
		{"/lib/app.js", content.MIMEType(content.JS)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := f.svc.Serve(context.Background(), tt.path)
			require.Equal(t, StatusOK, out.Status)
			assert.Equal(t, tt.want, out.MIMEType)
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "rate_limited", StatusRateLimited.String())
	assert.Equal(t, "internal_error", StatusInternalError.String())
}
