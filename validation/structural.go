package validation

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

// Expander produces the expanded JSON-LD form of a document.
type Expander interface {
	Expand(doc any) ([]any, error)
}

// Properties recommended on top-level nodes; their absence is a warning.
var recommendedProperties = []struct {
	base  string
	props []string
}{
	{"Article", []string{"image", "description"}},
	{"Organization", []string{"logo", "url"}},
}

// StructuralValidator checks types and properties against the schema.org
// vocabulary after JSON-LD expansion.
type StructuralValidator struct {
	vocab    *schemaorg.Cache
	expander Expander
}

// NewStructuralValidator creates a StructuralValidator.
func NewStructuralValidator(vocab *schemaorg.Cache, expander Expander) *StructuralValidator {
	return &StructuralValidator{vocab: vocab, expander: expander}
}

// Validate checks doc, a compacted JSON-LD document.
func (v *StructuralValidator) Validate(ctx context.Context, doc any) StructuralResult {
	vocab, err := v.vocab.Get(ctx)
	if err != nil {
		return StructuralResult{Errors: []Issue{{Message: fmt.Sprintf("schema.org validation unavailable: %v", err)}}}
	}

	expanded, err := v.expander.Expand(doc)
	if err != nil {
		return StructuralResult{Errors: []Issue{{Message: fmt.Sprintf("JSON-LD expansion failed: %v", err)}}}
	}

	w := &walker{vocab: vocab, types: map[string][]string{}}
	nodes := topLevelNodes(expanded)
	for _, n := range nodes {
		w.collectTypes(n)
	}
	for i, n := range nodes {
		path := nodePath(n, i)
		w.checkNode(n, path)
		w.checkRecommended(n, path)
	}

	return StructuralResult{
		Valid:    len(w.errors) == 0,
		Errors:   w.errors,
		Warnings: w.warnings,
	}
}

type walker struct {
	vocab    *schemaorg.Vocabulary
	types    map[string][]string
	errors   []Issue
	warnings []Issue
}

func (w *walker) errorf(path, prop, format string, args ...any) {
	w.errors = append(w.errors, Issue{Message: fmt.Sprintf(format, args...), Path: path, Property: prop})
}

func (w *walker) warnf(path, prop, format string, args ...any) {
	w.warnings = append(w.warnings, Issue{Message: fmt.Sprintf(format, args...), Path: path, Property: prop})
}

func topLevelNodes(expanded []any) []map[string]any {
	var out []map[string]any
	for _, item := range expanded {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if g, ok := m["@graph"].([]any); ok {
			out = append(out, topLevelNodes(g)...)
			continue
		}
		out = append(out, m)
	}
	return out
}

func nodePath(n map[string]any, i int) string {
	if id, ok := n["@id"].(string); ok && id != "" {
		return id
	}
	return fmt.Sprintf("@graph[%d]", i)
}

// collectTypes records the types of every identified node so references can
// be range-checked.
func (w *walker) collectTypes(n map[string]any) {
	if id, ok := n["@id"].(string); ok {
		if types := localTypes(n); len(types) > 0 {
			w.types[id] = append(w.types[id], types...)
		}
	}
	for k, v := range n {
		if strings.HasPrefix(k, "@") {
			continue
		}
		for _, child := range valueNodes(v) {
			w.collectTypes(child)
		}
	}
}

func (w *walker) checkNode(n map[string]any, path string) {
	var known []string
	for _, t := range stringList(n["@type"]) {
		name, ok := schemaorg.LocalName(t)
		if !ok {
			w.warnf(path, "@type", "Type %s is not a schema.org type", t)
			continue
		}
		c, ok := w.vocab.Class(name)
		if !ok {
			w.errorf(path, "@type", "Unknown schema.org type %q", name)
			continue
		}
		if c.SupersededBy != "" {
			w.warnf(path, "@type", "Type %q is superseded by %q", name, c.SupersededBy)
		}
		known = append(known, name)
	}

	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if strings.HasPrefix(k, "@") {
			continue
		}
		name, ok := schemaorg.LocalName(k)
		if !ok {
			w.warnf(path, k, "Property %s is not a schema.org property", k)
			continue
		}
		prop, ok := w.vocab.Property(name)
		if !ok {
			w.errorf(path, name, "Unknown schema.org property %q", name)
			continue
		}
		if prop.SupersededBy != "" {
			w.warnf(path, name, "Property %q is superseded by %q", name, prop.SupersededBy)
		}
		if len(known) > 0 && !w.inDomain(name, known) {
			w.errorf(path, name, "Property %q is not expected on type %s", name, strings.Join(known, ", "))
		}

		for i, child := range valueNodes(n[k]) {
			childPath := fmt.Sprintf("%s.%s[%d]", path, name, i)
			childTypes := localTypes(child)
			if len(childTypes) == 0 {
				if id, ok := child["@id"].(string); ok {
					childTypes = w.types[id]
				}
			}
			if len(childTypes) > 0 && !w.inRange(name, childTypes) {
				w.errorf(childPath, name, "Value of type %s is not in the range of %q", strings.Join(childTypes, ", "), name)
			}
			if hasProperties(child) {
				w.checkNode(child, childPath)
			}
		}
	}
}

func (w *walker) checkRecommended(n map[string]any, path string) {
	for _, typ := range localTypes(n) {
		for _, rec := range recommendedProperties {
			if !w.vocab.IsSubClassOf(typ, rec.base) {
				continue
			}
			for _, p := range rec.props {
				if _, ok := n[schemaorg.Namespace+p]; !ok {
					w.warnf(path, p, "Recommended property %q is missing on %s", p, typ)
				}
			}
		}
	}
}

func (w *walker) inDomain(prop string, types []string) bool {
	for _, t := range types {
		if _, ok := w.vocab.Class(t); ok && w.vocab.InDomain(prop, t) {
			return true
		}
	}
	return false
}

func (w *walker) inRange(prop string, types []string) bool {
	for _, t := range types {
		if _, ok := w.vocab.Class(t); !ok {
			// unknown types are reported on the node itself
			return true
		}
		if w.vocab.InRange(prop, t) {
			return true
		}
	}
	return false
}

// valueNodes returns the node objects among an expanded property value,
// looking inside @list containers.
func valueNodes(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	var out []map[string]any
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if _, isValue := m["@value"]; isValue {
			continue
		}
		if list, ok := m["@list"]; ok {
			out = append(out, valueNodes(list)...)
			continue
		}
		out = append(out, m)
	}
	return out
}

func hasProperties(n map[string]any) bool {
	for k := range n {
		if !strings.HasPrefix(k, "@") {
			return true
		}
	}
	return false
}

func localTypes(n map[string]any) []string {
	var out []string
	for _, t := range stringList(n["@type"]) {
		if name, ok := schemaorg.LocalName(t); ok {
			out = append(out, name)
		}
	}
	return out
}

func stringList(v any) []string {
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
