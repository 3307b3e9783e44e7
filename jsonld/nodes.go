package jsonld

import (
	"bytes"
	"encoding/json"
)

// Node type names.
const (
	TypeWebPage           = "WebPage"
	TypeArticle           = "Article"
	TypeOrganization      = "Organization"
	TypePerson            = "Person"
	TypeImageObject       = "ImageObject"
	TypeBreadcrumbList    = "BreadcrumbList"
	TypeListItem          = "ListItem"
	TypeFAQPage           = "FAQPage"
	TypeQuestion          = "Question"
	TypeAnswer            = "Answer"
	TypeThing             = "Thing"
	TypePostalAddress     = "PostalAddress"
	TypeContactPoint      = "ContactPoint"
	TypeQuantitativeValue = "QuantitativeValue"
)

// Node is one top-level entry of a graph. Concrete values are one of the
// variant structs in this package or *GenericNode.
type Node interface {
	NodeType() string
	NodeID() string
}

// WebPage is the page that hosts the primary entity.
type WebPage struct {
	Type               string `json:"@type"`
	ID                 string `json:"@id,omitempty"`
	URL                string `json:"url,omitempty"`
	Name               string `json:"name,omitempty"`
	Description        string `json:"description,omitempty"`
	InLanguage         string `json:"inLanguage,omitempty"`
	PrimaryImageOfPage *Ref   `json:"primaryImageOfPage,omitempty"`
	Breadcrumb         *Ref   `json:"breadcrumb,omitempty"`
	DatePublished      string `json:"datePublished,omitempty"`
	DateModified       string `json:"dateModified,omitempty"`
}

// Article is the primary entity of an article page. Subtypes such as
// NewsArticle or BlogPosting decode into it and keep their Type.
type Article struct {
	Type             string            `json:"@type"`
	ID               string            `json:"@id,omitempty"`
	Headline         string            `json:"headline,omitempty"`
	Description      string            `json:"description,omitempty"`
	DatePublished    string            `json:"datePublished,omitempty"`
	DateModified     string            `json:"dateModified,omitempty"`
	Author           *Ref              `json:"author,omitempty"`
	Publisher        *Ref              `json:"publisher,omitempty"`
	MainEntityOfPage *Ref              `json:"mainEntityOfPage,omitempty"`
	Image            List[ImageObject] `json:"image,omitempty"`
	ArticleSection   string            `json:"articleSection,omitempty"`
	Keywords         List[string]      `json:"keywords,omitempty"`
	InLanguage       string            `json:"inLanguage,omitempty"`
	WordCount        int               `json:"wordCount,omitempty"`
	Citation         List[string]      `json:"citation,omitempty"`
	Mentions         List[Thing]       `json:"mentions,omitempty"`
}

// ImageObject is always inlined where it is used.
type ImageObject struct {
	Type                 string `json:"@type"`
	ID                   string `json:"@id,omitempty"`
	URL                  string `json:"url,omitempty"`
	ContentURL           string `json:"contentUrl,omitempty"`
	Caption              string `json:"caption,omitempty"`
	Width                int    `json:"width,omitempty"`
	Height               int    `json:"height,omitempty"`
	RepresentativeOfPage bool   `json:"representativeOfPage,omitempty"`
}

type imageObjectAlias ImageObject

// UnmarshalJSON also accepts a bare image URL.
func (i *ImageObject) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*i = ImageObject{Type: TypeImageObject}
		return json.Unmarshal(trimmed, &i.URL)
	}
	var alias imageObjectAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*i = ImageObject(alias)
	return nil
}

// Organization is the publisher. Subtypes keep their Type.
type Organization struct {
	Type               string             `json:"@type"`
	ID                 string             `json:"@id,omitempty"`
	Name               string             `json:"name,omitempty"`
	URL                string             `json:"url,omitempty"`
	Logo               *ImageObject       `json:"logo,omitempty"`
	Description        string             `json:"description,omitempty"`
	LegalName          string             `json:"legalName,omitempty"`
	Email              string             `json:"email,omitempty"`
	Telephone          string             `json:"telephone,omitempty"`
	SameAs             List[string]       `json:"sameAs,omitempty"`
	Address            *PostalAddress     `json:"address,omitempty"`
	ContactPoint       List[ContactPoint] `json:"contactPoint,omitempty"`
	TaxID              string             `json:"taxID,omitempty"`
	VATID              string             `json:"vatID,omitempty"`
	FoundingDate       string             `json:"foundingDate,omitempty"`
	NumberOfEmployees  *QuantitativeValue `json:"numberOfEmployees,omitempty"`
	ParentOrganization *Organization      `json:"parentOrganization,omitempty"`
}

// PostalAddress is inlined into Organization.
type PostalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	AddressCountry  string `json:"addressCountry,omitempty"`
}

// ContactPoint is inlined into Organization.
type ContactPoint struct {
	Type              string       `json:"@type"`
	ContactType       string       `json:"contactType,omitempty"`
	Telephone         string       `json:"telephone,omitempty"`
	Email             string       `json:"email,omitempty"`
	AreaServed        string       `json:"areaServed,omitempty"`
	AvailableLanguage List[string] `json:"availableLanguage,omitempty"`
}

// QuantitativeValue carries either Value or a MinValue/MaxValue range.
type QuantitativeValue struct {
	Type     string `json:"@type"`
	Value    *int   `json:"value,omitempty"`
	MinValue *int   `json:"minValue,omitempty"`
	MaxValue *int   `json:"maxValue,omitempty"`
}

// Person is the author.
type Person struct {
	Type        string       `json:"@type"`
	ID          string       `json:"@id,omitempty"`
	Name        string       `json:"name,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	JobTitle    string       `json:"jobTitle,omitempty"`
	Image       *ImageObject `json:"image,omitempty"`
	SameAs      List[string] `json:"sameAs,omitempty"`
}

// BreadcrumbList is the navigation trail to the page.
type BreadcrumbList struct {
	Type            string         `json:"@type"`
	ID              string         `json:"@id,omitempty"`
	ItemListElement List[ListItem] `json:"itemListElement,omitempty"`
}

// ListItem is one breadcrumb step.
type ListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name,omitempty"`
	Item     string `json:"item,omitempty"`
}

// FAQPage lists the questions answered on the page.
type FAQPage struct {
	Type       string         `json:"@type"`
	ID         string         `json:"@id,omitempty"`
	MainEntity List[Question] `json:"mainEntity,omitempty"`
}

// Question is one FAQ entry.
type Question struct {
	Type           string  `json:"@type"`
	Name           string  `json:"name,omitempty"`
	AcceptedAnswer *Answer `json:"acceptedAnswer,omitempty"`
}

// Answer is the accepted answer of a Question.
type Answer struct {
	Type string `json:"@type"`
	Text string `json:"text,omitempty"`
}

// Thing is a generic entity, used for article mentions.
type Thing struct {
	Type   string       `json:"@type"`
	ID     string       `json:"@id,omitempty"`
	Name   string       `json:"name,omitempty"`
	SameAs List[string] `json:"sameAs,omitempty"`
}

// GenericNode holds a node whose type has no variant, or whose shape did not
// fit its variant.
type GenericNode struct {
	Type       string
	ID         string
	Properties map[string]any
}

// MarshalJSON merges the properties with @type and @id.
func (n *GenericNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+2)
	for k, v := range n.Properties {
		m[k] = v
	}
	if n.Type != "" {
		m["@type"] = n.Type
	}
	if n.ID != "" {
		m["@id"] = n.ID
	}
	return marshal(m)
}

func (n *WebPage) NodeType() string        { return n.Type }
func (n *WebPage) NodeID() string          { return n.ID }
func (n *Article) NodeType() string        { return n.Type }
func (n *Article) NodeID() string          { return n.ID }
func (n *Organization) NodeType() string   { return n.Type }
func (n *Organization) NodeID() string     { return n.ID }
func (n *Person) NodeType() string         { return n.Type }
func (n *Person) NodeID() string           { return n.ID }
func (n *ImageObject) NodeType() string    { return n.Type }
func (n *ImageObject) NodeID() string      { return n.ID }
func (n *BreadcrumbList) NodeType() string { return n.Type }
func (n *BreadcrumbList) NodeID() string   { return n.ID }
func (n *FAQPage) NodeType() string        { return n.Type }
func (n *FAQPage) NodeID() string          { return n.ID }
func (n *Thing) NodeType() string          { return n.Type }
func (n *Thing) NodeID() string            { return n.ID }
func (n *GenericNode) NodeType() string    { return n.Type }
func (n *GenericNode) NodeID() string      { return n.ID }
