package graph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testGenerator() *Generator {
	return NewGenerator(Site{Root: "https://example.com/", Name: "Example", Language: "en"},
		WithClock(func() time.Time { return fixedNow }))
}

func sampleArticle() *content.Article {
	published := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 1, 12, 9, 30, 0, 0, time.UTC)
	return &content.Article{
		ID:          "a1",
		Title:       "How structured data helps search engines read pages",
		Slug:        "structured-data",
		Content:     "<h2>Intro</h2><p>Structured data is <strong>useful</strong>.</p><p>See <a href=\"https://schema.org\">schema.org</a> docs.</p>",
		PublishedAt: &published,
		UpdatedAt:   &updated,
		Author:      &content.Author{ID: "p1", Name: "Dana Writer", Bio: "Writes about the web."},
		Client: &content.Organization{
			ID:   "o1",
			Name: "Acme Media",
			Type: "NewsMediaOrganization",
			URL:  "https://acme.example",
			Logo: &content.Media{URL: "https://cdn.example/logo.png", Width: 600, Height: 60},
		},
		Category:      &content.Category{Name: "Guides", Slug: "guides"},
		Tags:          []content.Tag{{Name: "seo"}, {Name: "json-ld"}},
		FeaturedImage: &content.Media{URL: "https://cdn.example/hero.jpg", AltText: "Hero"},
	}
}

func TestGenerate_NodeOrderAndIDs(t *testing.T) {
	g := testGenerator().Generate(sampleArticle())
	base := "https://example.com/articles/structured-data"

	var types, ids []string
	for _, n := range g.Nodes {
		types = append(types, n.NodeType())
		ids = append(ids, n.NodeID())
	}
	assert.Equal(t, []string{"WebPage", "Article", "NewsMediaOrganization", "Person", "BreadcrumbList"}, types)
	assert.Equal(t, []string{base, base + "#article", base + "#organization", base + "#author", base + "#breadcrumb"}, ids)

	art, ok := jsonld.FindFirst[*jsonld.Article](g)
	require.True(t, ok)
	assert.Equal(t, base+"#author", art.Author.ID)
	assert.Equal(t, base+"#organization", art.Publisher.ID)
	assert.Equal(t, "2025-01-10T08:00:00Z", art.DatePublished)
	assert.Equal(t, "2025-01-12T09:30:00Z", art.DateModified)
	assert.Equal(t, "Guides", art.ArticleSection)
	assert.Equal(t, jsonld.List[string]{"seo", "json-ld"}, art.Keywords)
	assert.Equal(t, "en", art.InLanguage)
	assert.Greater(t, art.WordCount, 5)
	assert.Contains(t, art.Description, "Structured data is useful")
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := testGenerator()
	a := sampleArticle()
	first, err := json.Marshal(gen.Generate(a))
	require.NoError(t, err)

	a.Title = "A different title that changes content but not addresses"
	a.UpdatedAt = nil
	second := gen.Generate(a)

	var ids []string
	for _, n := range second.Nodes {
		ids = append(ids, n.NodeID())
	}
	for _, id := range ids {
		assert.Contains(t, string(first), `"`+id+`"`)
	}
}

func TestCanonicalURL(t *testing.T) {
	gen := testGenerator()
	tests := []struct {
		name     string
		explicit string
		want     string
	}{
		{"explicit", "https://news.example/x", "https://news.example/x"},
		{"empty rebuilds", "", "https://example.com/articles/structured-data"},
		{"tenant path rebuilds", "https://example.com/clients/acme/structured-data", "https://example.com/articles/structured-data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sampleArticle()
			a.CanonicalURL = tt.explicit
			assert.Equal(t, tt.want, gen.CanonicalURL(a))
		})
	}
}

func imageJSON(t *testing.T, g *jsonld.Graph) any {
	t.Helper()
	doc, err := g.ToDocument()
	require.NoError(t, err)
	nodes := doc["@graph"].([]any)
	article := nodes[1].(map[string]any)
	return article["image"]
}

func TestGenerate_ImageCardinality(t *testing.T) {
	gen := testGenerator()

	t.Run("none omits key", func(t *testing.T) {
		a := sampleArticle()
		a.FeaturedImage = nil
		assert.Nil(t, imageJSON(t, gen.Generate(a)))
	})

	t.Run("hero only is single object", func(t *testing.T) {
		img, ok := imageJSON(t, gen.Generate(sampleArticle())).(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/articles/structured-data#primary-image", img["@id"])
		assert.Equal(t, true, img["representativeOfPage"])
	})

	t.Run("hero plus gallery sorted by position", func(t *testing.T) {
		a := sampleArticle()
		a.Gallery = []content.GalleryImage{
			{Position: 3, Media: content.Media{URL: "https://cdn.example/c.jpg"}},
			{Position: 1, Media: content.Media{URL: "https://cdn.example/a.jpg"}},
			{Position: 1, Media: content.Media{URL: "https://cdn.example/b.jpg"}},
		}
		list, ok := imageJSON(t, gen.Generate(a)).([]any)
		require.True(t, ok)
		require.Len(t, list, 4)

		var urls, ids []string
		for _, item := range list {
			m := item.(map[string]any)
			urls = append(urls, m["url"].(string))
			ids = append(ids, m["@id"].(string))
		}
		assert.Equal(t, []string{
			"https://cdn.example/hero.jpg",
			"https://cdn.example/a.jpg",
			"https://cdn.example/b.jpg",
			"https://cdn.example/c.jpg",
		}, urls)
		assert.Equal(t, "https://example.com/articles/structured-data#image-2", ids[1])
		assert.Equal(t, "https://example.com/articles/structured-data#image-4", ids[3])
	})
}

func TestGenerate_FAQ(t *testing.T) {
	gen := testGenerator()

	g := gen.Generate(sampleArticle())
	_, ok := jsonld.FindFirst[*jsonld.FAQPage](g)
	assert.False(t, ok)

	a := sampleArticle()
	a.FAQs = []content.FAQ{
		{Question: "Second?", Answer: "B", Position: 2},
		{Question: "First?", Answer: "A", Position: 1},
		{Question: "  ", Answer: "dropped"},
	}
	g = gen.Generate(a)
	faq, ok := jsonld.FindFirst[*jsonld.FAQPage](g)
	require.True(t, ok)
	assert.Equal(t, g.Nodes[len(g.Nodes)-1], faq)
	require.Len(t, faq.MainEntity, 2)
	assert.Equal(t, "First?", faq.MainEntity[0].Name)
}

func TestGenerate_Mentions(t *testing.T) {
	a := sampleArticle()
	a.Keywords = []content.SemanticTerm{
		{Name: "JSON-LD", URL: "https://json-ld.org"},
		{Name: ""},
		{Name: "Schema.org", WikidataID: "Q3475322", URL: "not-a-url"},
		{Name: "Plain"},
	}
	art, _ := jsonld.FindFirst[*jsonld.Article](testGenerator().Generate(a))
	require.Len(t, art.Mentions, 3)

	base := "https://example.com/articles/structured-data#mention-"
	assert.Equal(t, base+"1", art.Mentions[0].ID)
	assert.Equal(t, jsonld.List[string]{"https://json-ld.org"}, art.Mentions[0].SameAs)
	assert.Equal(t, base+"2", art.Mentions[1].ID)
	assert.Equal(t, jsonld.List[string]{"https://www.wikidata.org/wiki/Q3475322"}, art.Mentions[1].SameAs)
	assert.Empty(t, art.Mentions[2].SameAs)
}

func TestGenerate_Breadcrumb(t *testing.T) {
	a := sampleArticle()
	bc, _ := jsonld.FindFirst[*jsonld.BreadcrumbList](testGenerator().Generate(a))
	require.Len(t, bc.ItemListElement, 3)
	assert.Equal(t, "Home", bc.ItemListElement[0].Name)
	assert.Equal(t, "Guides", bc.ItemListElement[1].Name)
	last := bc.ItemListElement[2]
	assert.Equal(t, 3, last.Position)
	assert.Equal(t, "https://example.com/articles/structured-data", last.Item)

	a.Category = nil
	bc, _ = jsonld.FindFirst[*jsonld.BreadcrumbList](testGenerator().Generate(a))
	require.Len(t, bc.ItemListElement, 2)
	assert.Equal(t, 2, bc.ItemListElement[1].Position)
}

func TestGenerate_DateModifiedFallback(t *testing.T) {
	a := sampleArticle()
	a.PublishedAt = nil
	a.UpdatedAt = nil
	art, _ := jsonld.FindFirst[*jsonld.Article](testGenerator().Generate(a))
	assert.Equal(t, "2025-03-01T12:00:00Z", art.DateModified)
	assert.Empty(t, art.DatePublished)
}

func TestGenerate_MissingAuthorAndPublisher(t *testing.T) {
	a := sampleArticle()
	a.Author = nil
	a.Client = nil
	g := testGenerator().Generate(a)
	art, _ := jsonld.FindFirst[*jsonld.Article](g)
	assert.Nil(t, art.Author)
	assert.Nil(t, art.Publisher)
	_, ok := jsonld.FindFirst[*jsonld.Person](g)
	assert.False(t, ok)
}

func TestBuildOrganization(t *testing.T) {
	org := buildOrganization("https://x/#organization", &content.Organization{
		Name:               "Acme",
		Type:               "NotARealType",
		Address:            &content.Address{City: "Riyadh", Country: "SA"},
		ContactPoints:      []content.ContactPoint{{Phone: "+1"}, {}},
		TaxID:              "T-1",
		NumberOfEmployees:  "10-50",
		ParentOrganization: &content.OrganizationRef{Name: "Holding", URL: "https://holding.example"},
	})
	assert.Equal(t, jsonld.TypeOrganization, org.Type)
	require.NotNil(t, org.Address)
	assert.Equal(t, "Riyadh", org.Address.AddressLocality)
	require.Len(t, org.ContactPoint, 1)
	assert.Equal(t, "customer service", org.ContactPoint[0].ContactType)
	require.NotNil(t, org.NumberOfEmployees)
	assert.Equal(t, 10, *org.NumberOfEmployees.MinValue)
	assert.Equal(t, 50, *org.NumberOfEmployees.MaxValue)
	assert.Equal(t, "Holding", org.ParentOrganization.Name)
	assert.Nil(t, org.Logo)
}

func TestParseEmployees(t *testing.T) {
	tests := []struct {
		in       string
		value    *int
		min, max *int
		isNil    bool
	}{
		{in: "", isNil: true},
		{in: "many", isNil: true},
		{in: "10-x", isNil: true},
		{in: "25", value: intPtr(25)},
		{in: " 5 - 9 ", min: intPtr(5), max: intPtr(9)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseEmployees(tt.in)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.value, got.Value)
			assert.Equal(t, tt.min, got.MinValue)
			assert.Equal(t, tt.max, got.MaxValue)
		})
	}
}

func intPtr(v int) *int { return &v }
