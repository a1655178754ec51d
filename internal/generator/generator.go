// Package generator drives a single content generation against the
// backend: build the prompt, call the backend, retry while rate limited and
// pull the artifact out of the reply.
package generator

import (
	"context"
	"errors"
	"time"

	"genweb/internal/cache"
	"genweb/internal/content"
	"genweb/internal/llm"
	"genweb/internal/logs"
	"genweb/internal/metrics"
	"genweb/internal/prompt"
)

type state int

const (
	stateRequesting state = iota
	stateRetryWait
	stateSuccess
	stateFatal
)

// Options configures a Generator. Zero values fall back to defaults.
type Options struct {
	Retry          RetryPolicy
	MaxTokens      int
	AttemptTimeout time.Duration // per backend call, 0 disables
}

// Generator is safe for concurrent use; it keeps no per-request state.
type Generator struct {
	backend        llm.Backend
	builder        *prompt.Builder
	policy         RetryPolicy
	maxTokens      int
	attemptTimeout time.Duration
	logger         *logs.Logger
	metrics        *metrics.Registry
}

func New(
	backend llm.Backend,
	builder *prompt.Builder,
	opts Options,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Generator {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &Generator{
		backend:        backend,
		builder:        builder,
		policy:         opts.Retry,
		maxTokens:      opts.MaxTokens,
		attemptTimeout: opts.AttemptTimeout,
		logger:         logger,
		metrics:        metricsRegistry,
	}
}

// Generate produces the artifact for path. On failure the returned error
// is an *Error carrying the kind, the attempt count and the last cause.
func (g *Generator) Generate(
	ctx context.Context,
	path string,
	ct content.Type,
	history []cache.ContextEntry,
) (string, error) {
	g.metrics.Inc(metrics.GenerationRequestsTotal)

	p := g.builder.Build(path, ct, history)
	schedule := g.policy.Schedule()

	var (
		st      = stateRequesting
		attempt int
		body    string
		lastErr error
		kind    Kind
	)

	for {
		switch st {
		case stateRequesting:
			g.metrics.Inc(metrics.GenerationAttemptsTotal)
			reply, err := g.complete(ctx, p)
			attempt++

			switch {
			case err == nil:
				body, err = Extract(reply, ct)
				if err != nil {
					g.metrics.Inc(metrics.GenerationExtractFailTotal)
					lastErr, kind, st = err, KindExtractionFailed, stateFatal
				} else {
					st = stateSuccess
				}
			case isRateLimited(err) && attempt < len(schedule):
				g.logger.Warnf("generation of %s rate limited on attempt %d/%d", path, attempt, len(schedule))
				lastErr, st = err, stateRetryWait
			case isRateLimited(err):
				g.metrics.Inc(metrics.GenerationExhaustedTotal)
				lastErr, kind, st = err, KindExhausted, stateFatal
			default:
				lastErr, kind, st = err, KindBackendFatal, stateFatal
			}

		case stateRetryWait:
			g.metrics.Inc(metrics.GenerationRetriesTotal)
			select {
			case <-time.After(schedule[attempt]):
				st = stateRequesting
			case <-ctx.Done():
				lastErr, kind, st = ctx.Err(), KindBackendFatal, stateFatal
			}

		case stateSuccess:
			g.metrics.Inc(metrics.GenerationSuccessTotal)
			g.logger.Debugf("generated %s (%s, %d bytes) in %d attempt(s)", path, ct, len(body), attempt)
			return body, nil

		case stateFatal:
			g.metrics.Inc(metrics.GenerationFailuresTotal)
			return "", &Error{Kind: kind, Path: path, Attempts: attempt, Err: lastErr}
		}
	}
}

// Policy returns the retry policy in use.
func (g *Generator) Policy() RetryPolicy {
	return g.policy
}

func (g *Generator) complete(ctx context.Context, p string) (string, error) {
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}
	return g.backend.Complete(ctx, p, g.maxTokens)
}

func isRateLimited(err error) bool {
	var be *llm.BackendError
	if errors.As(err, &be) {
		return be.RateLimited
	}
	return errors.Is(err, llm.ErrRateLimited)
}
