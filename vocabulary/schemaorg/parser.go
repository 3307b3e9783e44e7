package schemaorg

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidVocabulary is returned when a document is not a schema.org
// vocabulary graph.
var ErrInvalidVocabulary = errors.New("invalid schema.org vocabulary")

// Parse reads the schema.org JSON-LD vocabulary release format
// (schemaorg-current-https.jsonld).
func Parse(data []byte) (*Vocabulary, error) {
	var doc struct {
		Graph []map[string]any `json:"@graph"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVocabulary, err)
	}
	if len(doc.Graph) == 0 {
		return nil, fmt.Errorf("%w: empty @graph", ErrInvalidVocabulary)
	}

	v := NewVocabulary()
	for _, term := range doc.Graph {
		id, _ := term["@id"].(string)
		name, ok := LocalName(id)
		if !ok || name == "" {
			continue
		}
		types := stringsOf(term["@type"])
		switch {
		case slices.Contains(types, "rdf:Property"):
			v.Properties[name] = &Property{
				Name:         name,
				Domains:      localRefs(term["schema:domainIncludes"]),
				Ranges:       localRefs(term["schema:rangeIncludes"]),
				SupersededBy: firstOf(localRefs(term["schema:supersededBy"])),
			}
		case slices.Contains(types, "rdfs:Class"):
			v.Classes[name] = &Class{
				Name:         name,
				SubClassOf:   localRefs(term["rdfs:subClassOf"]),
				SupersededBy: firstOf(localRefs(term["schema:supersededBy"])),
				DataType:     slices.Contains(types, "schema:DataType"),
			}
		case slices.Contains(types, "schema:DataType"):
			v.Classes[name] = &Class{Name: name, DataType: true}
		}
	}

	if len(v.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidVocabulary)
	}
	// Concrete data types subclass their base type in the release but the
	// base types themselves are only typed schema:DataType.
	for _, c := range v.Classes {
		for _, parent := range c.SubClassOf {
			if p, ok := v.Classes[parent]; ok && p.DataType {
				c.DataType = true
			}
		}
	}
	return v, nil
}

// localRefs reads {"@id": ...} or a list of them into local names, skipping
// references outside schema.org.
func localRefs(v any) []string {
	var out []string
	add := func(item any) {
		m, ok := item.(map[string]any)
		if !ok {
			return
		}
		id, _ := m["@id"].(string)
		if name, ok := LocalName(id); ok && name != "" {
			out = append(out, name)
		}
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			add(item)
		}
	default:
		add(t)
	}
	return out
}

func stringsOf(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func firstOf(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
