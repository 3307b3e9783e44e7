// Package content defines the hydrated content records the knowledge graph
// is built from, and the collaborators that load them.
package content

import "time"

// Article is a fully hydrated article with every relation needed to build
// its knowledge graph.
type Article struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Content      string     `json:"content,omitempty"` // HTML body
	CanonicalURL string     `json:"canonical_url,omitempty"`
	Language     string     `json:"language,omitempty"`
	Status       string     `json:"status,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	Author        *Author        `json:"author,omitempty"`
	Client        *Organization  `json:"client,omitempty"` // publisher
	Category      *Category      `json:"category,omitempty"`
	Tags          []Tag          `json:"tags,omitempty"`
	FeaturedImage *Media         `json:"featured_image,omitempty"`
	Gallery       []GalleryImage `json:"gallery,omitempty"`
	FAQs          []FAQ          `json:"faqs,omitempty"`
	Citations     []string       `json:"citations,omitempty"`
	Keywords      []SemanticTerm `json:"semantic_keywords,omitempty"`
}

// Author is the person credited with an article.
type Author struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug,omitempty"`
	Bio      string   `json:"bio,omitempty"`
	JobTitle string   `json:"job_title,omitempty"`
	URL      string   `json:"url,omitempty"`
	Image    *Media   `json:"image,omitempty"`
	SameAs   []string `json:"same_as,omitempty"`
}

// Organization is a client profile. Articles are published on behalf of one.
type Organization struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Slug               string           `json:"slug,omitempty"`
	Type               string           `json:"type,omitempty"` // schema.org subtype, e.g. "Corporation"
	LegalName          string           `json:"legal_name,omitempty"`
	Description        string           `json:"description,omitempty"`
	URL                string           `json:"url,omitempty"`
	Logo               *Media           `json:"logo,omitempty"`
	Email              string           `json:"email,omitempty"`
	Phone              string           `json:"phone,omitempty"`
	SameAs             []string         `json:"same_as,omitempty"`
	Address            *Address         `json:"address,omitempty"`
	ContactPoints      []ContactPoint   `json:"contact_points,omitempty"`
	TaxID              string           `json:"tax_id,omitempty"`
	VATID              string           `json:"vat_id,omitempty"`
	FoundingDate       string           `json:"founding_date,omitempty"`
	NumberOfEmployees  string           `json:"number_of_employees,omitempty"` // "25" or "10-50"
	ParentOrganization *OrganizationRef `json:"parent_organization,omitempty"`
}

// OrganizationRef points at an organization outside this graph.
type OrganizationRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no address field is set.
func (a *Address) IsZero() bool {
	return a == nil || (a.Street == "" && a.City == "" && a.Region == "" && a.PostalCode == "" && a.Country == "")
}

// ContactPoint is a way to reach an organization department.
type ContactPoint struct {
	Type       string   `json:"type"` // e.g. "customer service"
	Phone      string   `json:"phone,omitempty"`
	Email      string   `json:"email,omitempty"`
	AreaServed string   `json:"area_served,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

// Category groups articles.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a free-form article label.
type Tag struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Media is an uploaded image.
type Media struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
	Caption string `json:"caption,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// GalleryImage is an image attached to an article at an explicit position.
type GalleryImage struct {
	Position int   `json:"position"`
	Media    Media `json:"media"`
}

// FAQ is a question/answer pair shown on the article page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

// SemanticTerm is an entity the article mentions.
type SemanticTerm struct {
	Name       string `json:"name"`
	WikidataID string `json:"wikidata_id,omitempty"`
	URL        string `json:"url,omitempty"`
}
