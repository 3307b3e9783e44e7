// Package publish derives the publish decision from a validation report.
package publish

import (
	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// Messages for missing required content fields.
const (
	MsgTitleRequired         = "Title is required"
	MsgSlugRequired          = "Slug is required"
	MsgDatePublishedRequired = "Date published is required"
)

// RequiredFields asserts the presence of content fields outside the graph.
// A nil field is not asserted; false blocks publishing.
type RequiredFields struct {
	HasTitle         *bool `json:"has_title,omitempty"`
	HasSlug          *bool `json:"has_slug,omitempty"`
	HasDatePublished *bool `json:"has_date_published,omitempty"`
}

// Decision is the outcome of CanPublish.
type Decision struct {
	Allowed        bool     `json:"allowed"`
	BlockingErrors []string `json:"blocking_errors"`
	Warnings       []string `json:"warnings"`
}

// CanPublish gathers every blocking error and warning without stopping at
// the first one. Structural, schema and business errors block; warnings
// never do.
func CanPublish(report validation.Report, required RequiredFields) Decision {
	d := Decision{BlockingErrors: []string{}, Warnings: []string{}}

	for _, check := range []struct {
		flag *bool
		msg  string
	}{
		{required.HasTitle, MsgTitleRequired},
		{required.HasSlug, MsgSlugRequired},
		{required.HasDatePublished, MsgDatePublishedRequired},
	} {
		if check.flag != nil && !*check.flag {
			d.BlockingErrors = append(d.BlockingErrors, check.msg)
		}
	}

	for _, e := range report.Structural.Errors {
		d.BlockingErrors = append(d.BlockingErrors, "schema.org: "+issueText(e))
	}
	for _, e := range report.Schema.Errors {
		d.BlockingErrors = append(d.BlockingErrors, "JSON schema: "+e)
	}
	d.BlockingErrors = append(d.BlockingErrors, report.Business.Errors...)

	for _, w := range report.Structural.Warnings {
		d.Warnings = append(d.Warnings, "schema.org: "+issueText(w))
	}
	for _, w := range report.Schema.Warnings {
		d.Warnings = append(d.Warnings, "JSON schema: "+w)
	}
	d.Warnings = append(d.Warnings, report.Business.Warnings...)

	d.Allowed = len(d.BlockingErrors) == 0
	return d
}

func issueText(i validation.Issue) string {
	if i.Path == "" {
		return i.Message
	}
	return i.Message + " at " + i.Path
}
