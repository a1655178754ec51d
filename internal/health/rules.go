package health

import "genweb/internal/metrics"

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       Status
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// Retries mean the backend pushed back at least once.
func RateLimitRetryRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.GenerationRetriesTotal)] > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Backend rate limiting detected",
			Recommendation: "Lower request volume or raise the backend quota",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

func ExhaustionRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.GenerationExhaustedTotal)] > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Generations failed after exhausting retries",
			Recommendation: "Check backend quota; consider a larger retry budget",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Failures other than exhaustion are auth, network or reply problems and
// do not clear up on their own.
func GenerationFailureRule(snapshot map[string]int64) RuleResult {
	failures := snapshot[string(metrics.GenerationFailuresTotal)] -
		snapshot[string(metrics.GenerationExhaustedTotal)]

	if failures > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Generation failures detected",
			Recommendation: "Verify the API key, backend endpoint and network access",
			Severity:       StatusCritical,
		}
	}
	return RuleResult{}
}
