// Package health turns metrics and recent log lines into a health report.
package health

import (
	"strings"

	"genweb/internal/logs"
	"genweb/internal/metrics"
)

// Analyzer converts metrics + logs into a health report.
type Analyzer struct {
	metrics *metrics.Registry
	logger  *logs.Logger
	rules   []Rule
}

func NewAnalyzer(reg *metrics.Registry, logger *logs.Logger) *Analyzer {
	return &Analyzer{
		metrics: reg,
		logger:  logger,
		rules: []Rule{
			RateLimitRetryRule,
			ExhaustionRule,
			GenerationFailureRule,
		},
	}
}

// Analyze evaluates metrics and logs and returns a health report.
func (a *Analyzer) Analyze() Report {
	snapshot := a.metrics.Snapshot()

	var (
		signals         = []string{}
		recommendations = []string{}
		status          = StatusOK
	)

	for _, rule := range a.rules {
		result := rule(snapshot)
		if !result.Triggered {
			continue
		}
		signals = append(signals, result.Signal)
		recommendations = append(recommendations, result.Recommendation)
		status = escalate(status, result.Severity)
	}

	// log-based signals
	generationFailures := 0
	panicCount := 0

	for _, entry := range a.logger.GetLast(100) {
		if entry.Level == logs.ERROR && strings.Contains(entry.Message, "panic") {
			panicCount++
			continue
		}
		if (entry.Level == logs.WARN || entry.Level == logs.ERROR) &&
			strings.HasPrefix(entry.Message, "generation of") &&
			strings.Contains(entry.Message, "failed") {
			generationFailures++
		}
	}

	if generationFailures >= 3 {
		signals = append(signals, "Repeated generation failures detected in logs")
		recommendations = append(recommendations, "Inspect recent error logs for the failing paths")
		status = escalate(status, StatusDegraded)
	}

	if panicCount > 0 {
		signals = append(signals, "Application panics detected in logs")
		recommendations = append(recommendations, "Inspect stack traces and stabilize error handling")
		status = StatusCritical
	}

	summary := "System is healthy"
	if status != StatusOK {
		summary = "System health issues detected"
	}

	return Report{
		OverallStatus:   status,
		Summary:         summary,
		Signals:         signals,
		Recommendations: recommendations,
	}
}
