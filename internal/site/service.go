// Package site answers content requests: admission, cache lookup and,
// on a miss, generation.
package site

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"genweb/internal/cache"
	"genweb/internal/content"
	"genweb/internal/generator"
	"genweb/internal/logs"
	"genweb/internal/metrics"
	"genweb/internal/ratelimit"
)

// Status is the outcome class of a handled request.
type Status int

const (
	StatusOK Status = iota
	StatusRateLimited
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRateLimited:
		return "rate_limited"
	case StatusInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of Handle. Body and MIMEType are set only for
// StatusOK.
type Outcome struct {
	Status   Status
	Body     string
	MIMEType string
	CacheHit bool
	Shared   bool // served from a generation started by another request
}

// Generator produces artifacts on a cache miss.
type Generator interface {
	Generate(ctx context.Context, path string, ct content.Type, history []cache.ContextEntry) (string, error)
}

// Service owns request handling for generated paths.
type Service struct {
	limiter   *ratelimit.Limiter
	cache     *cache.Cache
	generator Generator
	logger    *logs.Logger
	metrics   *metrics.Registry

	flight singleflight.Group
}

func NewService(
	limiter *ratelimit.Limiter,
	c *cache.Cache,
	gen Generator,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Service {
	return &Service{
		limiter:   limiter,
		cache:     c,
		generator: gen,
		logger:    logger,
		metrics:   metricsRegistry,
	}
}

// Admit charges one request to clientKey's window.
func (s *Service) Admit(clientKey string) bool {
	return s.limiter.Allow(clientKey)
}

// Handle admits, then serves path from cache or generates it.
func (s *Service) Handle(ctx context.Context, path, clientKey string) Outcome {
	if !s.Admit(clientKey) {
		s.logger.Warnf("rate limit exceeded for %s", clientKey)
		return Outcome{Status: StatusRateLimited}
	}
	return s.Serve(ctx, path)
}

// Serve is Handle for a request that was already admitted.
func (s *Service) Serve(ctx context.Context, path string) Outcome {
	ct := content.Resolve(path)

	if entry, ok := s.cache.Get(path); ok {
		s.logger.Debugf("cache hit for %s", path)
		return Outcome{
			Status:   StatusOK,
			Body:     entry.Content,
			MIMEType: content.MIMEType(entry.ContentType),
			CacheHit: true,
		}
	}

	v, err, shared := s.flight.Do(path, func() (any, error) {
		if entry, ok := s.cache.Peek(path); ok {
			return entry.Content, nil
		}

		s.logger.Infof("generating %s content for %s", ct, path)

		// Detached from ctx: other callers may be waiting on this flight.
		body, err := s.generator.Generate(context.WithoutCancel(ctx), path, ct, s.cache.Context())
		if err != nil {
			return nil, err
		}
		s.cache.Set(path, body, ct)
		return body, nil
	})
	if shared {
		s.metrics.Inc(metrics.GenerationSharedTotal)
	}
	if err != nil {
		s.logFailure(path, err)
		return Outcome{Status: StatusInternalError}
	}

	return Outcome{
		Status:   StatusOK,
		Body:     v.(string),
		MIMEType: content.MIMEType(ct),
		Shared:   shared,
	}
}

func (s *Service) logFailure(path string, err error) {
	var gerr *generator.Error
	if errors.As(err, &gerr) {
		s.logger.Errorf("generation of %s failed (%s, %d attempt(s)): %v", path, gerr.Kind, gerr.Attempts, gerr.Err)
		return
	}
	s.logger.Errorf("generation of %s failed: %v", path, err)
}
