package graph

import (
	"strconv"
	"strings"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// buildOrganization emits only the fields the client record carries.
func buildOrganization(id string, c *content.Organization) *jsonld.Organization {
	typ := c.Type
	if typ == "" || !jsonld.IsOrganizationType(typ) {
		typ = jsonld.TypeOrganization
	}
	org := &jsonld.Organization{
		Type:              typ,
		ID:                id,
		Name:              c.Name,
		URL:               c.URL,
		Description:       c.Description,
		LegalName:         c.LegalName,
		Email:             c.Email,
		Telephone:         c.Phone,
		SameAs:            jsonld.ListOf(c.SameAs...),
		TaxID:             c.TaxID,
		VATID:             c.VATID,
		FoundingDate:      c.FoundingDate,
		NumberOfEmployees: parseEmployees(c.NumberOfEmployees),
	}
	if c.Logo != nil && c.Logo.URL != "" {
		org.Logo = &jsonld.ImageObject{
			Type:   jsonld.TypeImageObject,
			URL:    c.Logo.URL,
			Width:  c.Logo.Width,
			Height: c.Logo.Height,
		}
	}
	if c.Address != nil && !c.Address.IsZero() {
		org.Address = &jsonld.PostalAddress{
			Type:            jsonld.TypePostalAddress,
			StreetAddress:   c.Address.Street,
			AddressLocality: c.Address.City,
			AddressRegion:   c.Address.Region,
			PostalCode:      c.Address.PostalCode,
			AddressCountry:  c.Address.Country,
		}
	}
	for _, cp := range c.ContactPoints {
		if cp.Phone == "" && cp.Email == "" {
			continue
		}
		org.ContactPoint = append(org.ContactPoint, jsonld.ContactPoint{
			Type:              jsonld.TypeContactPoint,
			ContactType:       firstNonEmpty(cp.Type, "customer service"),
			Telephone:         cp.Phone,
			Email:             cp.Email,
			AreaServed:        cp.AreaServed,
			AvailableLanguage: jsonld.ListOf(cp.Languages...),
		})
	}
	if p := c.ParentOrganization; p != nil && p.Name != "" {
		org.ParentOrganization = &jsonld.Organization{
			Type: jsonld.TypeOrganization,
			Name: p.Name,
			URL:  p.URL,
		}
	}
	return org
}

// parseEmployees reads "N" or "N-M". The range is split on the first hyphen,
// so negative numbers and other separators are not understood; any
// non-numeric part omits the value.
func parseEmployees(s string) *jsonld.QuantitativeValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		minV, err1 := strconv.Atoi(strings.TrimSpace(lo))
		maxV, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return nil
		}
		return &jsonld.QuantitativeValue{Type: jsonld.TypeQuantitativeValue, MinValue: &minV, MaxValue: &maxV}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &jsonld.QuantitativeValue{Type: jsonld.TypeQuantitativeValue, Value: &v}
}
