// Package export serializes knowledge graphs for files, feeds and pages.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatJSONLD produces indented JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"

	// FormatCompact produces single-line JSON-LD output.
	FormatCompact Format = "compact"

	// FormatScript produces an HTML script element for embedding in a page.
	FormatScript Format = "script"

	// FormatNQuads produces N-Quads (.nq) output.
	FormatNQuads Format = "nquads"

	// FormatCanonical produces URDNA2015 canonical N-Quads.
	FormatCanonical Format = "canonical"

	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD, indented",
	},
	FormatCompact: {
		Name:        FormatCompact,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD on a single line",
	},
	FormatScript: {
		Name:        FormatScript,
		MIMEType:    "text/html",
		Extension:   ".html",
		Description: "HTML script element carrying the JSON-LD",
	},
	FormatNQuads: {
		Name:        FormatNQuads,
		MIMEType:    "application/n-quads",
		Extension:   ".nq",
		Description: "N-Quads - Line-based RDF format",
	},
	FormatCanonical: {
		Name:        FormatCanonical,
		MIMEType:    "application/n-quads",
		Extension:   ".nq",
		Description: "Canonical N-Quads (URDNA2015), stable for hashing and diffing",
	},
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats lists the supported format names in lexical order.
func Formats() []string {
	out := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// TurtleWriter writes RDF in Turtle format.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with default prefixes.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{
		prefixes: defaultPrefixes(),
	}
}

// defaultPrefixes returns the namespace prefixes used in Turtle output.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"schema": "https://schema.org/",
		"xsd":    "http://www.w3.org/2001/XMLSchema#",
	}
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	// Sort prefixes for consistent output
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, prefix := range keys {
		fmt.Fprintf(&w.sb, "@prefix %s: <%s> .\n", prefix, w.prefixes[prefix])
	}
	w.sb.WriteString("\n")
}

// WriteDataset writes every triple of the default graph, grouped by
// subject in lexical order.
func (w *TurtleWriter) WriteDataset(ds *ld.RDFDataset) {
	bySubject := map[string][]*ld.Quad{}
	var subjects []string
	for _, q := range ds.GetQuads("@default") {
		s := w.term(q.Subject)
		if _, ok := bySubject[s]; !ok {
			subjects = append(subjects, s)
		}
		bySubject[s] = append(bySubject[s], q)
	}
	sort.Strings(subjects)

	for i, s := range subjects {
		if i > 0 {
			w.sb.WriteString("\n")
		}
		w.sb.WriteString(s + "\n")
		quads := bySubject[s]
		for j, q := range quads {
			terminator := " ;"
			if j == len(quads)-1 {
				terminator = " ."
			}
			predicate := w.term(q.Predicate)
			if predicate == "rdf:type" {
				predicate = "a"
			}
			fmt.Fprintf(&w.sb, "    %s %s%s\n", predicate, w.term(q.Object), terminator)
		}
	}
}

// term renders an RDF term, shortening IRIs with a known prefix.
func (w *TurtleWriter) term(n ld.Node) string {
	switch {
	case ld.IsIRI(n):
		return w.iri(n.GetValue())
	case ld.IsBlankNode(n):
		return n.GetValue()
	}
	if l, ok := n.(*ld.Literal); ok {
		return w.literal(l)
	}
	return quoteLiteral(n.GetValue())
}

func (w *TurtleWriter) iri(value string) string {
	for prefix, ns := range w.prefixes {
		local, ok := strings.CutPrefix(value, ns)
		if ok && local != "" && !strings.ContainsAny(local, "/#?:.") {
			return prefix + ":" + local
		}
	}
	return "<" + value + ">"
}

func (w *TurtleWriter) literal(l *ld.Literal) string {
	s := quoteLiteral(l.Value)
	switch {
	case l.Language != "":
		return s + "@" + l.Language
	case l.Datatype != "" && l.Datatype != ld.XSDString:
		return s + "^^" + w.iri(l.Datatype)
	}
	return s
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func quoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
