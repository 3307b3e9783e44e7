package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Default business-rule thresholds.
const (
	DefaultMinHeadlineLength = 30
	DefaultMaxHeadlineLength = 110
)

var optionsValidator = validator.New()

// Options tunes the business rules.
type Options struct {
	RequirePublisherLogo bool `json:"require_publisher_logo" yaml:"require_publisher_logo"`
	RequireHeroImage     bool `json:"require_hero_image" yaml:"require_hero_image"`
	RequireAuthorBio     bool `json:"require_author_bio" yaml:"require_author_bio"`
	MinHeadlineLength    int  `json:"min_headline_length" yaml:"min_headline_length" validate:"gte=0"`
	MaxHeadlineLength    int  `json:"max_headline_length" yaml:"max_headline_length" validate:"gtefield=MinHeadlineLength"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		RequirePublisherLogo: true,
		RequireHeroImage:     true,
		RequireAuthorBio:     false,
		MinHeadlineLength:    DefaultMinHeadlineLength,
		MaxHeadlineLength:    DefaultMaxHeadlineLength,
	}
}

// Validate checks that the headline window is well formed.
func (o Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("invalid validation options: %w", err)
	}
	return nil
}

// Overrides carries caller-supplied option values. Nil fields keep the
// value they are applied to.
type Overrides struct {
	RequirePublisherLogo *bool `json:"require_publisher_logo,omitempty" yaml:"require_publisher_logo,omitempty"`
	RequireHeroImage     *bool `json:"require_hero_image,omitempty" yaml:"require_hero_image,omitempty"`
	RequireAuthorBio     *bool `json:"require_author_bio,omitempty" yaml:"require_author_bio,omitempty"`
	MinHeadlineLength    *int  `json:"min_headline_length,omitempty" yaml:"min_headline_length,omitempty"`
	MaxHeadlineLength    *int  `json:"max_headline_length,omitempty" yaml:"max_headline_length,omitempty"`
}

// Apply returns o with every set override applied.
func (o Options) Apply(ov Overrides) Options {
	if ov.RequirePublisherLogo != nil {
		o.RequirePublisherLogo = *ov.RequirePublisherLogo
	}
	if ov.RequireHeroImage != nil {
		o.RequireHeroImage = *ov.RequireHeroImage
	}
	if ov.RequireAuthorBio != nil {
		o.RequireAuthorBio = *ov.RequireAuthorBio
	}
	if ov.MinHeadlineLength != nil {
		o.MinHeadlineLength = *ov.MinHeadlineLength
	}
	if ov.MaxHeadlineLength != nil {
		o.MaxHeadlineLength = *ov.MaxHeadlineLength
	}
	return o
}
