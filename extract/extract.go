// Package extract reads structured data back out of rendered HTML and audits
// it with the validator ensemble.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// Format identifies the markup a block was found in.
type Format string

const (
	FormatJSONLD    Format = "json-ld"
	FormatMicrodata Format = "microdata"
	FormatRDFa      Format = "rdfa"
)

const schemaOrgPrefix = "https://schema.org/"

// Block is one structured-data item found on a page.
type Block struct {
	Format Format `json:"format"`
	// Raw is the script body for JSON-LD blocks.
	Raw string `json:"raw,omitempty"`
	// Data is the decoded document. Microdata and RDFa items are expressed
	// as JSON-LD objects.
	Data any `json:"data,omitempty"`
	// Error is set when the block could not be decoded.
	Error string `json:"error,omitempty"`
}

// Types returns the @type values of the block's top-level nodes.
func (b Block) Types() []string {
	var out []string
	for _, n := range topNodes(b.Data) {
		if t := typeOf(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Graph decodes the block into the typed graph model.
func (b Block) Graph() (*jsonld.Graph, error) {
	if b.Error != "" {
		return nil, fmt.Errorf("%w: %s", jsonld.ErrInvalidGraph, b.Error)
	}
	data, err := json.Marshal(b.Data)
	if err != nil {
		return nil, err
	}
	return jsonld.Parse(data)
}

// Extract returns every JSON-LD script, top-level microdata item and RDFa
// lite resource on the page, in document order by format. Malformed JSON-LD
// is kept as a block carrying the parse error.
func Extract(page string) ([]Block, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []Block
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom == atom.Script && isJSONLDScript(n) {
			blocks = append(blocks, jsonLDBlock(textContent(n)))
			return false
		}
		return true
	})

	walk(doc, func(n *html.Node) bool {
		if hasAttr(n, "itemscope") && !hasAttr(n, "itemprop") {
			blocks = append(blocks, Block{Format: FormatMicrodata, Data: microdataItem(n)})
			return false
		}
		return true
	})

	walkVocab(doc, "", func(n *html.Node, vocab string) bool {
		if typ, ok := attr(n, "typeof"); ok && !hasAttr(n, "property") {
			blocks = append(blocks, Block{Format: FormatRDFa, Data: rdfaResource(n, vocab, typ)})
			return false
		}
		return true
	})

	return blocks, nil
}

func isJSONLDScript(n *html.Node) bool {
	t, _ := attr(n, "type")
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t == "application/ld+json"
}

func jsonLDBlock(raw string) Block {
	b := Block{Format: FormatJSONLD, Raw: strings.TrimSpace(raw)}
	var data any
	if err := json.Unmarshal([]byte(b.Raw), &data); err != nil {
		b.Error = fmt.Sprintf("invalid JSON: %v", err)
		return b
	}
	b.Data = data
	return b
}

// microdataItem converts an itemscope element and its itemprop descendants
// into a JSON-LD object.
func microdataItem(n *html.Node) map[string]any {
	item := map[string]any{"@context": jsonld.DefaultContext}
	if t, ok := attr(n, "itemtype"); ok {
		item["@type"] = localType(strings.Fields(t))
	}
	if id, ok := attr(n, "itemid"); ok {
		item["@id"] = id
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(el *html.Node) bool {
			props, ok := attr(el, "itemprop")
			if !ok {
				return !hasAttr(el, "itemscope")
			}
			var value any
			if hasAttr(el, "itemscope") {
				nested := microdataItem(el)
				delete(nested, "@context")
				value = nested
			} else {
				value = propertyValue(el, "content")
			}
			for _, p := range strings.Fields(props) {
				addValue(item, p, value)
			}
			return !hasAttr(el, "itemscope")
		})
	}
	return item
}

// rdfaResource converts a typeof element and its property descendants into
// a JSON-LD object. Only the schema.org vocabulary is understood.
func rdfaResource(n *html.Node, vocab, typ string) map[string]any {
	item := map[string]any{}
	if vocab == "" || strings.TrimSuffix(strings.Replace(vocab, "http://", "https://", 1), "/")+"/" == schemaOrgPrefix {
		item["@context"] = jsonld.DefaultContext
	} else {
		item["@context"] = map[string]any{"@vocab": vocab}
	}
	item["@type"] = localType(strings.Fields(typ))
	if id, ok := attr(n, "resource"); ok {
		item["@id"] = id
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkVocab(c, vocab, func(el *html.Node, v string) bool {
			props, ok := attr(el, "property")
			if !ok {
				return !hasAttr(el, "typeof")
			}
			var value any
			if t, ok := attr(el, "typeof"); ok {
				nested := rdfaResource(el, v, t)
				delete(nested, "@context")
				value = nested
			} else {
				value = propertyValue(el, "content")
			}
			for _, p := range strings.Fields(props) {
				addValue(item, localName(p), value)
			}
			return !hasAttr(el, "typeof")
		})
	}
	return item
}

// propertyValue returns the value of a leaf property element following the
// microdata rules: content, then the element's URL attribute, then text.
func propertyValue(n *html.Node, contentAttr string) any {
	if v, ok := attr(n, contentAttr); ok {
		return v
	}
	switch n.DataAtom {
	case atom.A, atom.Link, atom.Area:
		if v, ok := attr(n, "href"); ok {
			return v
		}
	case atom.Img, atom.Audio, atom.Video, atom.Source, atom.Iframe, atom.Embed:
		if v, ok := attr(n, "src"); ok {
			return v
		}
	case atom.Time:
		if v, ok := attr(n, "datetime"); ok {
			return v
		}
	case atom.Data, atom.Meter:
		if v, ok := attr(n, "value"); ok {
			return v
		}
	}
	return strings.Join(strings.Fields(textContent(n)), " ")
}

// addValue sets item[key], turning repeated properties into arrays.
func addValue(item map[string]any, key string, value any) {
	existing, ok := item[key]
	if !ok {
		item[key] = value
		return
	}
	if list, ok := existing.([]any); ok {
		item[key] = append(list, value)
		return
	}
	item[key] = []any{existing, value}
}

func localType(types []string) any {
	names := make([]any, 0, len(types))
	for _, t := range types {
		names = append(names, localName(t))
	}
	if len(names) == 1 {
		return names[0]
	}
	return names
}

func localName(iri string) string {
	for _, prefix := range []string{schemaOrgPrefix, "http://schema.org/", "schema:"} {
		if strings.HasPrefix(iri, prefix) {
			return strings.TrimPrefix(iri, prefix)
		}
	}
	return iri
}

// walk visits n and its descendants depth first. Children are skipped when
// fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// walkVocab is walk with the RDFa vocab in scope for each element.
func walkVocab(n *html.Node, vocab string, fn func(*html.Node, string) bool) {
	if n.Type == html.ElementNode {
		if v, ok := attr(n, "vocab"); ok {
			vocab = v
		}
		if !fn(n, vocab) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkVocab(c, vocab, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// topNodes returns the node objects of a decoded document: the @graph
// members, the array elements, or the document itself.
func topNodes(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, e := range v {
			out = append(out, topNodes(e)...)
		}
		return out
	case map[string]any:
		if g, ok := v["@graph"]; ok {
			return topNodes(g)
		}
		return []map[string]any{v}
	}
	return nil
}

func typeOf(n map[string]any) string {
	switch t := n["@type"].(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			s, _ := t[0].(string)
			return s
		}
	}
	return ""
}
