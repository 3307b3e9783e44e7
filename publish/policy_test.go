package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modonty1-rgb/modonty-sub005/validation"
)

func boolPtr(b bool) *bool { return &b }

func TestCanPublish(t *testing.T) {
	clean := validation.Report{
		Structural: validation.StructuralResult{Valid: true},
		Schema:     validation.SchemaResult{Valid: true},
	}

	tests := []struct {
		name     string
		report   validation.Report
		required RequiredFields
		allowed  bool
		blocking []string
		warnings int
	}{
		{
			name:    "clean report, nothing asserted",
			report:  clean,
			allowed: true,
		},
		{
			name:     "all required fields present",
			report:   clean,
			required: RequiredFields{HasTitle: boolPtr(true), HasSlug: boolPtr(true), HasDatePublished: boolPtr(true)},
			allowed:  true,
		},
		{
			name:     "missing fields block with fixed messages",
			report:   clean,
			required: RequiredFields{HasTitle: boolPtr(false), HasSlug: boolPtr(false), HasDatePublished: boolPtr(false)},
			blocking: []string{MsgTitleRequired, MsgSlugRequired, MsgDatePublishedRequired},
		},
		{
			name: "warnings alone never block",
			report: validation.Report{
				Structural: validation.StructuralResult{Valid: true, Warnings: []validation.Issue{{Message: "w1"}}},
				Schema:     validation.SchemaResult{Valid: true, Warnings: []string{"headline too short"}},
				Business:   validation.BusinessResult{Warnings: []string{"Headline is 29 characters"}},
			},
			allowed:  true,
			warnings: 3,
		},
		{
			name: "every error category blocks",
			report: validation.Report{
				Structural: validation.StructuralResult{Errors: []validation.Issue{{Message: "Unknown type", Path: "x"}}},
				Schema:     validation.SchemaResult{Errors: []string{"headline is required"}},
				Business:   validation.BusinessResult{Errors: []string{"Publisher organization must have a logo"}},
			},
			required: RequiredFields{HasSlug: boolPtr(false)},
			blocking: []string{
				MsgSlugRequired,
				"schema.org: Unknown type at x",
				"JSON schema: headline is required",
				"Publisher organization must have a logo",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanPublish(tt.report, tt.required)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.blocking == nil {
				assert.Empty(t, d.BlockingErrors)
			} else {
				assert.Equal(t, tt.blocking, d.BlockingErrors)
			}
			assert.Len(t, d.Warnings, tt.warnings)
		})
	}
}
