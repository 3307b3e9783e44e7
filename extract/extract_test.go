package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/fetch"
	"github.com/modonty1-rgb/modonty-sub005/graph"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/normalize"
	"github.com/modonty1-rgb/modonty-sub005/validation"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg/schemaorgtest"
)

const headline = "Structured data that survives the rendering step intact"

func pageWith(t *testing.T, head, body string) string {
	t.Helper()
	paragraph := "<p>" + strings.Repeat("Knowledge graphs describe pages to search engines with linked nodes. ", 12) + "</p>"
	return "<!DOCTYPE html><html><head>" + head + "</head><body><article><h1>" + headline + "</h1>" +
		paragraph + paragraph + paragraph + body + "</article></body></html>"
}

func generatedScript(t *testing.T) string {
	t.Helper()
	published := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	g := graph.NewGenerator(graph.Site{Root: "https://example.com"}).Generate(&content.Article{
		ID:            "a1",
		Title:         headline,
		Slug:          "a1",
		Excerpt:       "How structured data is kept correct.",
		PublishedAt:   &published,
		Author:        &content.Author{Name: "Dana Writer", Bio: "Writes."},
		Client:        &content.Organization{Name: "Acme", URL: "https://acme.example", Logo: &content.Media{URL: "https://cdn.example/logo.png"}},
		FeaturedImage: &content.Media{URL: "https://cdn.example/hero.jpg"},
	})
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return `<script type="application/ld+json">` + string(data) + `</script>`
}

func TestExtract_JSONLD(t *testing.T) {
	page := pageWith(t, generatedScript(t)+`<script type="application/ld+json">{not json</script><script>var x = 1;</script>`, "")

	blocks, err := Extract(page)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, FormatJSONLD, blocks[0].Format)
	assert.Empty(t, blocks[0].Error)
	assert.Equal(t, []string{"WebPage", "Article", "Organization", "Person", "BreadcrumbList"}, blocks[0].Types())

	assert.Equal(t, FormatJSONLD, blocks[1].Format)
	assert.Contains(t, blocks[1].Error, "invalid JSON")
	assert.Equal(t, "{not json", blocks[1].Raw)
	_, err = blocks[1].Graph()
	assert.Error(t, err)
}

func TestExtract_Microdata(t *testing.T) {
	page := `<html><body>
<div itemscope itemtype="https://schema.org/Article" itemid="https://example.com/a#article">
  <h1 itemprop="headline">Microdata headline</h1>
  <time itemprop="datePublished" datetime="2025-01-01T00:00:00Z">Jan 1</time>
  <div itemprop="author" itemscope itemtype="https://schema.org/Person">
    <span itemprop="name">Dana   Writer</span>
  </div>
  <a itemprop="url" href="https://example.com/a">link</a>
  <span itemprop="keywords">go</span><span itemprop="keywords">json</span>
  <div itemscope itemtype="https://schema.org/Thing"><span itemprop="name">ignored</span></div>
</div>
</body></html>`

	blocks, err := Extract(page)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, FormatMicrodata, b.Format)

	item := b.Data.(map[string]any)
	assert.Equal(t, "Article", item["@type"])
	assert.Equal(t, "https://example.com/a#article", item["@id"])
	assert.Equal(t, "Microdata headline", item["headline"])
	assert.Equal(t, "2025-01-01T00:00:00Z", item["datePublished"])
	assert.Equal(t, "https://example.com/a", item["url"])
	assert.Equal(t, []any{"go", "json"}, item["keywords"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Dana Writer"}, item["author"])
	assert.NotContains(t, item, "name")

	g, err := b.Graph()
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	article, ok := g.Nodes[0].(*jsonld.Article)
	require.True(t, ok, "got %T", g.Nodes[0])
	assert.True(t, article.Author.IsInline())
}

func TestExtract_RDFa(t *testing.T) {
	page := `<html><body>
<div vocab="https://schema.org/" typeof="Organization">
  <span property="name">Acme</span>
  <a property="url" href="https://acme.example">site</a>
  <div property="address" typeof="PostalAddress">
    <span property="addressLocality">Riyadh</span>
  </div>
</div>
</body></html>`

	blocks, err := Extract(page)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	item := blocks[0].Data.(map[string]any)
	assert.Equal(t, FormatRDFa, blocks[0].Format)
	assert.Equal(t, "https://schema.org", item["@context"])
	assert.Equal(t, "Organization", item["@type"])
	assert.Equal(t, "Acme", item["name"])
	assert.Equal(t, "https://acme.example", item["url"])
	assert.Equal(t, map[string]any{"@type": "PostalAddress", "addressLocality": "Riyadh"}, item["address"])
}

func newAuditor(t *testing.T, opts ...AuditorOption) *Auditor {
	t.Helper()
	e, err := validation.NewEnsemble(schemaorgtest.NewCache(), normalize.NewNormalizer(nil, nil))
	require.NoError(t, err)
	return NewAuditor(e, opts...)
}

func TestAudit_GeneratedPage(t *testing.T) {
	page := pageWith(t, "<title>"+headline+" | Example</title>"+generatedScript(t), "")

	r := newAuditor(t).Audit(context.Background(), page, "https://example.com/articles/a1", validation.DefaultOptions())
	require.Len(t, r.Blocks, 1)
	require.NotNil(t, r.Blocks[0].Report)
	assert.Zero(t, r.Blocks[0].Report.ErrorCount(), "%+v", r.Blocks[0].Report)
	assert.True(t, r.Valid())
	assert.False(t, r.AuditedAt.IsZero())
	for _, w := range r.Warnings {
		assert.NotContains(t, w, "headline")
	}
}

func TestAudit_NoStructuredData(t *testing.T) {
	r := newAuditor(t).Audit(context.Background(), pageWith(t, "<title>Plain</title>", ""), "", validation.DefaultOptions())
	assert.Empty(t, r.Blocks)
	assert.Contains(t, r.Warnings, "Page has no structured data")
	assert.False(t, r.Valid())
}

func TestAudit_InvalidBlock(t *testing.T) {
	page := pageWith(t, `<script type="application/ld+json">[1,</script>`, "")
	r := newAuditor(t).Audit(context.Background(), page, "", validation.DefaultOptions())
	require.Len(t, r.Blocks, 1)
	assert.NotEmpty(t, r.Blocks[0].Error)
	assert.Nil(t, r.Blocks[0].Report)
	assert.False(t, r.Valid())
}

func TestAudit_MicrodataArticleWithNestedItems(t *testing.T) {
	body := `<div itemscope itemtype="https://schema.org/Article">
  <h1 itemprop="headline">` + headline + `</h1>
  <div itemprop="author" itemscope itemtype="https://schema.org/Person"><span itemprop="name">Dana Writer</span></div>
  <div itemprop="publisher" itemscope itemtype="https://schema.org/Organization"><span itemprop="name">Acme</span></div>
</div>`
	r := newAuditor(t).Audit(context.Background(), pageWith(t, "<title>"+headline+"</title>", body), "", validation.DefaultOptions())
	require.Len(t, r.Blocks, 1)
	require.NotNil(t, r.Blocks[0].Report)
	assert.Equal(t, FormatMicrodata, r.Blocks[0].Format)

	business := r.Blocks[0].Report.Business.Errors
	assert.NotContains(t, business, "Graph has no Article node")
	assert.Contains(t, business, "Author must reference a Person in the graph")
	assert.Contains(t, business, "Publisher must reference an Organization in the graph")
}

type stubGetter struct {
	body string
	err  error
}

func (s stubGetter) Get(_ context.Context, rawURL, _ string) (*fetch.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &fetch.Result{URL: rawURL, Body: []byte(s.body), StatusCode: 200}, nil
}

func TestAuditURL(t *testing.T) {
	page := pageWith(t, generatedScript(t), "")
	r, err := newAuditor(t, WithGetter(stubGetter{body: page})).AuditURL(context.Background(), "https://example.com/articles/a1", validation.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/articles/a1", r.URL)
	assert.Len(t, r.Blocks, 1)

	_, err = newAuditor(t, WithGetter(stubGetter{err: fetch.ErrBlockedURL})).AuditURL(context.Background(), "https://10.0.0.1/", validation.DefaultOptions())
	assert.True(t, errors.Is(err, fetch.ErrBlockedURL))

	_, err = newAuditor(t).AuditURL(context.Background(), "https://example.com/", validation.DefaultOptions())
	assert.Error(t, err)
}

func TestFindArticleAndCrossCheck(t *testing.T) {
	doc := map[string]any{
		"@graph": []any{
			map[string]any{"@type": "BlogPosting", "headline": "Original headline", "author": map[string]any{"@id": "#p"}},
			map[string]any{"@type": "Person", "@id": "#p", "name": "Dana Writer"},
		},
	}
	facts := findArticle(doc)
	require.NotNil(t, facts)
	assert.Equal(t, "Original headline", facts.headline)
	assert.Equal(t, "Dana Writer", facts.author)

	assert.Empty(t, crossCheck(facts, &PageText{Title: "original  HEADLINE - Site", Byline: "By Dana Writer"}))
	warnings := crossCheck(facts, &PageText{Title: "Something else", Byline: "Sam Other"})
	assert.Len(t, warnings, 2)

	assert.Nil(t, findArticle(map[string]any{"@type": "Organization"}))
}
