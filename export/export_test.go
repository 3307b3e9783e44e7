package export_test

import (
	"strings"
	"testing"

	"github.com/modonty1-rgb/modonty-sub005/export"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

const articleID = "https://example.com/a#article"

func sampleGraph(headline string) *jsonld.Graph {
	return jsonld.NewGraph(
		&jsonld.Article{
			Type:     jsonld.TypeArticle,
			ID:       articleID,
			Headline: headline,
			Author:   jsonld.RefTo("https://example.com/a#author"),
		},
		&jsonld.Person{Type: jsonld.TypePerson, ID: "https://example.com/a#author", Name: "Dana Writer"},
	)
}

func TestExportJSONLD(t *testing.T) {
	out, err := export.NewExporter(nil).Export(sampleGraph("Hello <world>"), export.FormatJSONLD)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(out, "\n  \"@context\": \"https://schema.org\"") {
		t.Errorf("JSON-LD output should be indented, got:\n%s", out)
	}
	if !strings.Contains(out, "Hello <world>") {
		t.Error("pretty JSON-LD should not HTML-escape text")
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("output should not end with a newline")
	}

	compact, err := export.NewExporter(nil).Export(sampleGraph("Tom & <Jerry>"), export.FormatCompact)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(compact, "\n") {
		t.Error("compact output should be a single line")
	}
	if !strings.Contains(compact, "Tom & <Jerry>") {
		t.Errorf("compact JSON-LD should not HTML-escape text, got %s", compact)
	}
}

func TestScript_EscapesClosingTag(t *testing.T) {
	out, err := export.Script(sampleGraph("Bad </script><script>alert(1)</script>"))
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if !strings.HasPrefix(out, `<script type="application/ld+json">{`) {
		t.Errorf("unexpected prefix: %s", out)
	}
	if n := strings.Count(out, "</script>"); n != 1 {
		t.Errorf("expected exactly one closing tag, found %d in %s", n, out)
	}
	if !strings.HasSuffix(out, "}</script>") {
		t.Errorf("unexpected suffix: %s", out)
	}

	withID, err := export.ScriptWithID(sampleGraph("Hello"), `kg"1`)
	if err != nil {
		t.Fatalf("ScriptWithID failed: %v", err)
	}
	if !strings.Contains(withID, `id="kg&#34;1"`) {
		t.Errorf("id attribute should be escaped: %s", withID)
	}
}

func TestExportNQuads(t *testing.T) {
	out, err := export.NewExporter(nil).Export(sampleGraph("Hello"), export.FormatNQuads)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	for _, want := range []string{
		"<" + articleID + "> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://schema.org/Article> .",
		"<" + articleID + "> <https://schema.org/headline> \"Hello\" .",
		"<" + articleID + "> <https://schema.org/author> <https://example.com/a#author> .",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("N-Quads output missing %q\n%s", want, out)
		}
	}
}

func TestExportCanonical_OrderIndependent(t *testing.T) {
	e := export.NewExporter(nil)
	g := sampleGraph("Hello")
	reversed := jsonld.NewGraph(g.Nodes[1], g.Nodes[0])

	a, err := e.Export(g, export.FormatCanonical)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	b, err := e.Export(reversed, export.FormatCanonical)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if a != b {
		t.Errorf("canonical output depends on node order:\n%s\n---\n%s", a, b)
	}
	if a == "" {
		t.Error("canonical output is empty")
	}
}

func TestExportTurtle(t *testing.T) {
	out, err := export.NewExporter(nil).Export(sampleGraph("Say \"hi\""), export.FormatTurtle)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	for _, want := range []string{
		"@prefix schema: <https://schema.org/> .",
		"<" + articleID + ">\n",
		"a schema:Article",
		`schema:headline "Say \"hi\""`,
		"schema:author <https://example.com/a#author>",
		`schema:name "Dana Writer" .`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Turtle output missing %q\n%s", want, out)
		}
	}
}

func TestExportErrors(t *testing.T) {
	e := export.NewExporter(nil)
	if _, err := e.Export(sampleGraph("x"), export.Format("yaml")); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := e.Export(nil, export.FormatJSONLD); err == nil {
		t.Error("expected error for nil graph")
	}
}

func TestFormatRegistry(t *testing.T) {
	for _, name := range export.Formats() {
		info, ok := export.GetFormatInfo(export.Format(name))
		if !ok {
			t.Fatalf("format %s missing from registry", name)
		}
		if info.MIMEType == "" || !strings.HasPrefix(info.Extension, ".") {
			t.Errorf("incomplete metadata for %s: %+v", name, info)
		}
	}
	if _, ok := export.GetFormatInfo("unknown"); ok {
		t.Error("unknown format should not be found")
	}
}
