package jsonld

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultContext is the context every generated graph carries.
const DefaultContext = "https://schema.org"

// ErrInvalidGraph reports a document that is not a node, an array of nodes
// or an @graph container.
var ErrInvalidGraph = errors.New("invalid json-ld graph")

// Types that decode into the Article variant.
var articleTypes = map[string]bool{
	"Article":                  true,
	"NewsArticle":              true,
	"BlogPosting":              true,
	"TechArticle":              true,
	"ScholarlyArticle":         true,
	"Report":                   true,
	"AnalysisNewsArticle":      true,
	"OpinionNewsArticle":       true,
	"ReviewNewsArticle":        true,
	"SocialMediaPosting":       true,
	"LiveBlogPosting":          true,
	"AdvertiserContentArticle": true,
}

// Types that decode into the Organization variant.
var organizationTypes = map[string]bool{
	"Organization":            true,
	"Corporation":             true,
	"LocalBusiness":           true,
	"NewsMediaOrganization":   true,
	"EducationalOrganization": true,
	"GovernmentOrganization":  true,
	"NGO":                     true,
	"OnlineBusiness":          true,
	"OnlineStore":             true,
	"MedicalOrganization":     true,
	"SportsOrganization":      true,
	"PerformingGroup":         true,
	"ProfessionalService":     true,
	"Store":                   true,
}

// IsArticleType reports whether t decodes as an Article.
func IsArticleType(t string) bool { return articleTypes[t] }

// IsOrganizationType reports whether t decodes as an Organization.
func IsOrganizationType(t string) bool { return organizationTypes[t] }

// Graph is a JSON-LD document with a context and a flat list of nodes.
type Graph struct {
	Context any
	Nodes   []Node
}

// NewGraph returns a graph using DefaultContext.
func NewGraph(nodes ...Node) *Graph {
	return &Graph{Context: DefaultContext, Nodes: nodes}
}

// MarshalJSON emits {"@context": ..., "@graph": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	ctx := g.Context
	if ctx == nil {
		ctx = DefaultContext
	}
	nodes := g.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return marshal(struct {
		Context any    `json:"@context"`
		Graph   []Node `json:"@graph"`
	}{ctx, nodes})
}

// marshal encodes v without HTML escaping. Escaping is left to the outermost
// encoder, which re-compacts Marshaler output with its own setting.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts an @graph container, a single top-level node, or a
// bare array of nodes.
func (g *Graph) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidGraph
	}

	var raw []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGraph, err)
		}
		g.Context = nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGraph, err)
		}
		g.Context = nil
		if c, ok := obj["@context"]; ok {
			var ctx any
			if err := json.Unmarshal(c, &ctx); err != nil {
				return fmt.Errorf("%w: @context: %v", ErrInvalidGraph, err)
			}
			g.Context = ctx
		}
		if items, ok := obj["@graph"]; ok {
			var list List[json.RawMessage]
			if err := json.Unmarshal(items, &list); err != nil {
				return fmt.Errorf("%w: @graph: %v", ErrInvalidGraph, err)
			}
			raw = list
		} else {
			delete(obj, "@context")
			single, err := json.Marshal(obj)
			if err != nil {
				return err
			}
			raw = []json.RawMessage{single}
		}
	default:
		return ErrInvalidGraph
	}

	g.Nodes = make([]Node, 0, len(raw))
	for i, item := range raw {
		n, err := DecodeNode(item)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	return nil
}

// Parse decodes a JSON-LD document into a Graph.
func Parse(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ToDocument round-trips the graph into a generic map, the form the JSON-LD
// processor and JSON schema checks consume.
func (g *Graph) ToDocument() (map[string]any, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Find returns the node with the given @id.
func (g *Graph) Find(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.NodeID() == id {
			return n, true
		}
	}
	return nil, false
}

// DecodeNode decodes one node object. Keyword aliases id and type are
// accepted; a type array dispatches on its first entry. A node whose shape
// does not fit its variant is kept as a GenericNode.
func DecodeNode(data []byte) (Node, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null node", ErrInvalidGraph)
	}
	canonicalizeKeywords(obj)

	typ := firstType(obj["@type"])
	if typ != "" {
		obj["@type"] = typ
	}

	var target Node
	switch {
	case IsArticleType(typ):
		target = &Article{}
	case IsOrganizationType(typ):
		target = &Organization{}
	case typ == TypeWebPage:
		target = &WebPage{}
	case typ == TypePerson:
		target = &Person{}
	case typ == TypeImageObject:
		target = &ImageObject{}
	case typ == TypeBreadcrumbList:
		target = &BreadcrumbList{}
	case typ == TypeFAQPage:
		target = &FAQPage{}
	case typ == TypeThing:
		target = &Thing{}
	}

	if target != nil {
		normalized, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(normalized, target); err == nil {
			return target, nil
		}
	}

	id, _ := obj["@id"].(string)
	delete(obj, "@id")
	delete(obj, "@type")
	return &GenericNode{Type: typ, ID: id, Properties: obj}, nil
}

func canonicalizeKeywords(obj map[string]any) {
	for _, kw := range []string{"id", "type"} {
		v, ok := obj[kw]
		if !ok {
			continue
		}
		if _, exists := obj["@"+kw]; !exists {
			obj["@"+kw] = v
		}
		delete(obj, kw)
	}
}

func firstType(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
