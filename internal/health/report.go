package health

// Status represents overall server health.
type Status string

const (
	StatusOK       Status = "OK"
	StatusDegraded Status = "DEGRADED"
	StatusCritical Status = "CRITICAL"
)

// Report is the health summary served at /_admin/health.
type Report struct {
	OverallStatus   Status   `json:"overall_status"`
	Summary         string   `json:"summary"`
	Signals         []string `json:"signals"`
	Recommendations []string `json:"recommendations"`
}

// escalate returns the more severe of current and s.
func escalate(current, s Status) Status {
	switch {
	case current == StatusCritical || s == StatusCritical:
		return StatusCritical
	case current == StatusDegraded || s == StatusDegraded:
		return StatusDegraded
	default:
		return StatusOK
	}
}
