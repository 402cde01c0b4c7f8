package validation

import (
	"github.com/c360studio/qfai/config"
	"github.com/c360studio/qfai/issue"
)

// Result is the outcome of one validation run.
type Result struct {
	ToolVersion  string        `json:"tool_version"`
	RunID        string        `json:"run_id"`
	Issues       []issue.Issue `json:"issues"`
	Counts       issue.Counts  `json:"counts"`
	Traceability Traceability  `json:"traceability"`

	// Config is the effective configuration of the run.
	Config *config.Config `json:"-"`
}

// ValidationResult is an alias for Result.
type ValidationResult = Result //revive:disable-line

// Traceability holds the coverage sections of a result.
type Traceability struct {
	SC        ScCoverage `json:"sc"`
	TestFiles ScanMeta   `json:"test_files"`
}

// Failed reports whether the result fails under failOn (error, warning or never).
func (r *Result) Failed(failOn string) bool {
	threshold := issue.SeverityError
	switch failOn {
	case config.FailOnNever:
		return false
	case config.FailOnWarning:
		threshold = issue.SeverityWarning
	}
	for _, i := range r.Issues {
		if i.Severity.AtLeast(threshold) {
			return true
		}
	}
	return false
}
