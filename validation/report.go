// Package validation checks knowledge graphs with three independent
// validators and merges their findings into one Report.
package validation

import "time"

// Issue is one structural finding.
type Issue struct {
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Property string `json:"property,omitempty"`
}

// StructuralResult is the schema.org vocabulary check.
type StructuralResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// SchemaResult is the JSON schema check.
type SchemaResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// BusinessResult is the content policy check.
type BusinessResult struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Info     []string `json:"info,omitempty"`
}

// Report keeps the three results side by side so callers can tell a
// vocabulary problem from a policy problem.
type Report struct {
	Structural  StructuralResult `json:"structural"`
	Schema      SchemaResult     `json:"schema"`
	Business    BusinessResult   `json:"business"`
	ValidatedAt time.Time        `json:"validated_at"`
}

// ErrorCount returns the number of errors across all three results.
func (r Report) ErrorCount() int {
	return len(r.Structural.Errors) + len(r.Schema.Errors) + len(r.Business.Errors)
}

// WarningCount returns the number of warnings across all three results.
func (r Report) WarningCount() int {
	return len(r.Structural.Warnings) + len(r.Schema.Warnings) + len(r.Business.Warnings)
}
