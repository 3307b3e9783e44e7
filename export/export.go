package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"

	"github.com/piprate/json-gold/ld"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/normalize"
)

// Exporter serializes graphs. RDF formats run through the JSON-LD
// processor with the given document loader.
type Exporter struct {
	proc   *ld.JsonLdProcessor
	loader ld.DocumentLoader
}

// NewExporter creates an Exporter. A nil loader resolves only the embedded
// schema.org context.
func NewExporter(loader ld.DocumentLoader) *Exporter {
	if loader == nil {
		loader = normalize.NewDocumentLoader(nil)
	}
	return &Exporter{proc: ld.NewJsonLdProcessor(), loader: loader}
}

// Export serializes g in the requested format.
func (e *Exporter) Export(g *jsonld.Graph, format Format) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: nil graph", jsonld.ErrInvalidGraph)
	}
	switch format {
	case FormatJSONLD:
		return encodeJSON(g, "  ", false)
	case FormatCompact:
		return encodeJSON(g, "", false)
	case FormatScript:
		return Script(g)
	case FormatNQuads:
		return e.nquads(g, false)
	case FormatCanonical:
		return e.nquads(g, true)
	case FormatTurtle:
		return e.turtle(g)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Script renders g as a script element. The JSON is HTML-escaped so the
// payload can never close the element early.
func Script(g *jsonld.Graph) (string, error) {
	body, err := encodeJSON(g, "", true)
	if err != nil {
		return "", err
	}
	return `<script type="application/ld+json">` + body + `</script>`, nil
}

// ScriptWithID is Script with an id attribute on the element.
func ScriptWithID(g *jsonld.Graph, id string) (string, error) {
	body, err := encodeJSON(g, "", true)
	if err != nil {
		return "", err
	}
	return `<script type="application/ld+json" id="` + html.EscapeString(id) + `">` + body + `</script>`, nil
}

func encodeJSON(g *jsonld.Graph, indent string, escapeHTML bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(escapeHTML)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(g); err != nil {
		return "", fmt.Errorf("encode graph: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (e *Exporter) nquads(g *jsonld.Graph, canonical bool) (string, error) {
	doc, err := g.ToDocument()
	if err != nil {
		return "", err
	}
	opts := normalize.Options(e.loader)
	opts.Format = "application/n-quads"

	var out any
	if canonical {
		opts.Algorithm = ld.AlgorithmURDNA2015
		out, err = e.proc.Normalize(doc, opts)
	} else {
		out, err = e.proc.ToRDF(doc, opts)
	}
	if err != nil {
		return "", fmt.Errorf("convert to RDF: %w", err)
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("convert to RDF: unexpected result %T", out)
	}
	return s, nil
}

func (e *Exporter) turtle(g *jsonld.Graph) (string, error) {
	doc, err := g.ToDocument()
	if err != nil {
		return "", err
	}
	out, err := e.proc.ToRDF(doc, normalize.Options(e.loader))
	if err != nil {
		return "", fmt.Errorf("convert to RDF: %w", err)
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return "", fmt.Errorf("convert to RDF: unexpected result %T", out)
	}

	w := NewTurtleWriter()
	w.WritePrefixes()
	w.WriteDataset(ds)
	return w.String(), nil
}
