package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// Keyword types whose violation is an error. Every other keyword is a
// warning.
var blockingKeywords = map[string]bool{
	"required": true,
	"format":   true,
}

var (
	uriString      = map[string]any{"type": "string", "format": "uri"}
	dateTimeString = map[string]any{"type": "string", "format": "date-time"}
	nodeRef        = map[string]any{
		"type":       "object",
		"required":   []any{"@id"},
		"properties": map[string]any{"@id": uriString},
	}
)

// nodeSchemas are keyed by schema kind.
var nodeSchemas = map[string]map[string]any{
	"Article": {
		"type":     "object",
		"required": []any{"@id", "headline", "datePublished", "dateModified", "author", "publisher"},
		"properties": map[string]any{
			"@id":           uriString,
			"headline":      map[string]any{"type": "string", "minLength": DefaultMinHeadlineLength, "maxLength": DefaultMaxHeadlineLength},
			"description":   map[string]any{"type": "string", "minLength": 1},
			"datePublished": dateTimeString,
			"dateModified":  dateTimeString,
			"author":        nodeRef,
			"publisher":     nodeRef,
			"wordCount":     map[string]any{"type": "integer", "minimum": 0},
		},
	},
	"WebPage": {
		"type":     "object",
		"required": []any{"@id", "url", "name"},
		"properties": map[string]any{
			"@id":  uriString,
			"url":  uriString,
			"name": map[string]any{"type": "string", "minLength": 1},
		},
	},
	"Organization": {
		"type":     "object",
		"required": []any{"@id", "name"},
		"properties": map[string]any{
			"@id":  uriString,
			"name": map[string]any{"type": "string", "minLength": 1},
			"url":  uriString,
			"logo": map[string]any{
				"type":       "object",
				"required":   []any{"url"},
				"properties": map[string]any{"url": uriString},
			},
		},
	},
	"Person": {
		"type":     "object",
		"required": []any{"@id", "name"},
		"properties": map[string]any{
			"@id":  uriString,
			"name": map[string]any{"type": "string", "minLength": 1},
			"url":  uriString,
		},
	},
	"BreadcrumbList": {
		"type":     "object",
		"required": []any{"@id", "itemListElement"},
		"properties": map[string]any{
			"@id":             uriString,
			"itemListElement": map[string]any{"type": []any{"array", "object"}, "minItems": 1},
		},
	},
	"FAQPage": {
		"type":     "object",
		"required": []any{"@id", "mainEntity"},
		"properties": map[string]any{
			"@id":        uriString,
			"mainEntity": map[string]any{"type": []any{"array", "object"}, "minItems": 1},
		},
	},
}

// SchemaValidator applies per-kind JSON schemas to top-level nodes.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator compiles the node schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	v := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema, len(nodeSchemas))}
	for kind, def := range nodeSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = s
	}
	return v, nil
}

// schemaKind maps a node type to the schema that governs it.
func schemaKind(typ string) string {
	switch {
	case jsonld.IsArticleType(typ):
		return "Article"
	case jsonld.IsOrganizationType(typ):
		return "Organization"
	default:
		return typ
	}
}

// Validate checks every top-level node of doc.
func (v *SchemaValidator) Validate(doc any) SchemaResult {
	var res SchemaResult
	seen := map[string]bool{}

	for i, node := range documentNodes(doc) {
		typ := firstString(node["@type"])
		id, _ := node["@id"].(string)
		label := fmt.Sprintf("%s %s", typ, id)
		if id == "" {
			label = fmt.Sprintf("%s @graph[%d]", typ, i)
		}

		if id != "" {
			if seen[id] {
				res.Errors = append(res.Errors, fmt.Sprintf("Duplicate @id %s", id))
			}
			seen[id] = true
		}

		schema, ok := v.schemas[schemaKind(typ)]
		if !ok {
			continue
		}
		result, err := schema.Validate(gojsonschema.NewGoLoader(node))
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		for _, re := range result.Errors() {
			msg := fmt.Sprintf("%s: %s", label, re.String())
			if blockingKeywords[re.Type()] {
				res.Errors = append(res.Errors, msg)
			} else {
				res.Warnings = append(res.Warnings, msg)
			}
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// documentNodes returns the top-level node objects of a compacted document
// with id/type aliases resolved.
func documentNodes(doc any) []map[string]any {
	var items []any
	switch t := doc.(type) {
	case []any:
		items = t
	case map[string]any:
		if g, ok := t["@graph"]; ok {
			if list, ok := g.([]any); ok {
				items = list
			} else {
				items = []any{g}
			}
		} else {
			items = []any{t}
		}
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node := make(map[string]any, len(m))
		for k, val := range m {
			switch k {
			case "@context":
				continue
			case "id", "type":
				if _, exists := m["@"+k]; !exists {
					node["@"+k] = val
				}
			default:
				node[k] = val
			}
		}
		out = append(out, node)
	}
	return out
}

func firstString(v any) string {
	for _, s := range stringList(v) {
		if s != "" {
			return s
		}
	}
	return ""
}
