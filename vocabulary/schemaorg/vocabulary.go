// Package schemaorg models the schema.org vocabulary and keeps a
// process-wide cached copy of it.
package schemaorg

import (
	"strings"
)

// Namespace is the schema.org IRI prefix.
const Namespace = "https://schema.org/"

// Class is a schema.org type.
type Class struct {
	Name         string
	SubClassOf   []string
	SupersededBy string
	DataType     bool
}

// Property is a schema.org property.
type Property struct {
	Name         string
	Domains      []string
	Ranges       []string
	SupersededBy string
}

// Vocabulary is the set of classes and properties keyed by local name.
type Vocabulary struct {
	Version    string
	Classes    map[string]*Class
	Properties map[string]*Property
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		Classes:    make(map[string]*Class),
		Properties: make(map[string]*Property),
	}
}

// LocalName strips the schema.org namespace, in https, http or compact
// "schema:" form. ok is false for IRIs outside schema.org.
func LocalName(iri string) (name string, ok bool) {
	for _, prefix := range []string{Namespace, "http://schema.org/", "schema:"} {
		if strings.HasPrefix(iri, prefix) {
			return strings.TrimPrefix(iri, prefix), true
		}
	}
	return "", false
}

// Class returns the class with the given local name.
func (v *Vocabulary) Class(name string) (*Class, bool) {
	c, ok := v.Classes[name]
	return c, ok
}

// Property returns the property with the given local name.
func (v *Vocabulary) Property(name string) (*Property, bool) {
	p, ok := v.Properties[name]
	return p, ok
}

// Ancestors returns name and every class it inherits from, nearest first.
// Cycles in the hierarchy are tolerated.
func (v *Vocabulary) Ancestors(name string) []string {
	var out []string
	seen := map[string]bool{}
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		if c, ok := v.Classes[cur]; ok {
			queue = append(queue, c.SubClassOf...)
		}
	}
	return out
}

// IsSubClassOf reports whether name equals ancestor or inherits from it.
func (v *Vocabulary) IsSubClassOf(name, ancestor string) bool {
	for _, a := range v.Ancestors(name) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// InDomain reports whether prop may be used on a node of type class.
func (v *Vocabulary) InDomain(prop, class string) bool {
	p, ok := v.Properties[prop]
	if !ok {
		return false
	}
	for _, d := range p.Domains {
		if v.IsSubClassOf(class, d) {
			return true
		}
	}
	return false
}

// InRange reports whether a node of type class is an accepted value of prop.
// Properties ranging over Text or URL also accept nodes, since schema.org
// permits an entity where a literal is expected.
func (v *Vocabulary) InRange(prop, class string) bool {
	p, ok := v.Properties[prop]
	if !ok {
		return false
	}
	for _, r := range p.Ranges {
		if v.IsSubClassOf(class, r) {
			return true
		}
		if r == "Text" || r == "URL" {
			return true
		}
	}
	return false
}
