// Package llm provides the generation backends used to produce site content.
//
// Every backend implements Backend: one prompt in, one text reply out.
//
// Supported providers:
//   - AnthropicClient - Anthropic messages API (default)
//   - OpenAIClient    - OpenAI chat completions API
//
// Failures are returned as *BackendError. The adapter decides whether a
// failure is a rate limit (HTTP 429) and records it in RateLimited, so callers
// never inspect status codes themselves:
//
//	reply, err := backend.Complete(ctx, prompt, 4096)
//	var be *llm.BackendError
//	if errors.As(err, &be) && be.RateLimited {
//	    // back off and retry
//	}
package llm
