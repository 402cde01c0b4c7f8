// Package issue defines the validation issue model and its stable code
// taxonomy. Issues are values; once built they are never modified.
package issue

import (
	"fmt"
)

// Severity classifies how serious an issue is.
type Severity string

// Severities, from most to least serious.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a config value to a Severity, defaulting to error.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityWarning:
		return SeverityWarning
	case SeverityInfo:
		return SeverityInfo
	}
	return SeverityError
}

// rank orders severities for threshold comparison.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// AtLeast reports whether s is as serious as threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.rank() >= threshold.rank()
}

// Category separates compatibility findings from change-tracking findings.
type Category string

// Categories.
const (
	CategoryCompatibility Category = "compatibility"
	CategoryChange        Category = "change"
)

// Location points into a file.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// Issue is one validation finding.
type Issue struct {
	Code            Code      `json:"code"`
	Severity        Severity  `json:"severity"`
	Category        Category  `json:"category"`
	Message         string    `json:"message"`
	File            string    `json:"file,omitempty"`
	Refs            []string  `json:"refs,omitempty"`
	Rule            string    `json:"rule,omitempty"`
	Loc             *Location `json:"loc,omitempty"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
}

// String renders the issue as a single line.
func (i Issue) String() string {
	where := i.File
	if i.Loc != nil && i.Loc.Line > 0 {
		where = fmt.Sprintf("%s:%d", i.File, i.Loc.Line)
	}
	if where == "" {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", i.Severity, i.Code, i.Message, where)
}

// Option sets an optional Issue field during construction.
type Option func(*Issue)

// New builds an issue in the compatibility category.
func New(code Code, severity Severity, message string, opts ...Option) Issue {
	i := Issue{
		Code:     code,
		Severity: severity,
		Category: CategoryCompatibility,
		Message:  message,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// InFile sets the file.
func InFile(file string) Option {
	return func(i *Issue) { i.File = file }
}

// At sets the file and line. A non-positive line leaves Loc unset.
func At(file string, line int) Option {
	return func(i *Issue) {
		i.File = file
		if line > 0 {
			i.Loc = &Location{Line: line}
		}
	}
}

// WithRefs attaches the identifiers the issue is about.
func WithRefs(refs ...string) Option {
	return func(i *Issue) { i.Refs = append([]string(nil), refs...) }
}

// WithRule names the rule that produced the issue.
func WithRule(rule string) Option {
	return func(i *Issue) { i.Rule = rule }
}

// Suggest sets the suggested action.
func Suggest(action string) Option {
	return func(i *Issue) { i.SuggestedAction = action }
}

// InCategory overrides the category.
func InCategory(c Category) Option {
	return func(i *Issue) { i.Category = c }
}

// Counts tallies issues per severity.
type Counts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Count tallies issues by severity.
func Count(issues []Issue) Counts {
	var c Counts
	for _, i := range issues {
		switch i.Severity {
		case SeverityError:
			c.Error++
		case SeverityWarning:
			c.Warning++
		default:
			c.Info++
		}
	}
	return c
}

// Filter returns the issues carrying code.
func Filter(issues []Issue, code Code) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Code == code {
			out = append(out, i)
		}
	}
	return out
}
