package validation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/graph"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/normalize"
	"github.com/modonty1-rgb/modonty-sub005/validation"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg/schemaorgtest"
)

func newEnsemble(t *testing.T) *validation.Ensemble {
	t.Helper()
	e, err := validation.NewEnsemble(schemaorgtest.NewCache(), normalize.NewNormalizer(nil, nil))
	require.NoError(t, err)
	return e
}

func validArticle(title string) *content.Article {
	published := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	return &content.Article{
		ID:            "a1",
		Title:         title,
		Slug:          "a1",
		Excerpt:       "A short summary of the article.",
		PublishedAt:   &published,
		UpdatedAt:     &published,
		Author:        &content.Author{Name: "Dana Writer", Bio: "Writes."},
		Client:        &content.Organization{Name: "Acme", URL: "https://acme.example", Logo: &content.Media{URL: "https://cdn.example/logo.png"}},
		FeaturedImage: &content.Media{URL: "https://cdn.example/hero.jpg"},
		FAQs:          []content.FAQ{{Question: "Why?", Answer: "Because."}},
		Keywords:      []content.SemanticTerm{{Name: "Go", WikidataID: "Q37227"}},
	}
}

func generate(a *content.Article) *jsonld.Graph {
	return graph.NewGenerator(graph.Site{Root: "https://example.com"}).Generate(a)
}

const goodTitle = "A headline that is comfortably long enough"

func TestEnsemble_ValidGraph(t *testing.T) {
	r := newEnsemble(t).ValidateComplete(context.Background(), generate(validArticle(goodTitle)), validation.DefaultOptions())

	assert.True(t, r.Structural.Valid, "%+v", r.Structural.Errors)
	assert.Empty(t, r.Structural.Errors)
	assert.True(t, r.Schema.Valid, "%v", r.Schema.Errors)
	assert.Empty(t, r.Schema.Warnings)
	assert.Empty(t, r.Business.Errors)
	assert.Empty(t, r.Business.Warnings)
	assert.NotEmpty(t, r.Business.Info)
	assert.False(t, r.ValidatedAt.IsZero())
	assert.Equal(t, 0, r.ErrorCount())
}

func TestEnsemble_ShortHeadlineWarns(t *testing.T) {
	title := strings.Repeat("h", 29)
	r := newEnsemble(t).ValidateComplete(context.Background(), generate(validArticle(title)), validation.DefaultOptions())

	assert.Equal(t, 0, r.ErrorCount())
	require.Len(t, r.Schema.Warnings, 1)
	assert.Contains(t, r.Schema.Warnings[0], "headline")
	require.Len(t, r.Business.Warnings, 1)
	assert.Contains(t, r.Business.Warnings[0], "29 characters")
}

func TestEnsemble_MissingAuthorAndPublisher(t *testing.T) {
	a := validArticle(goodTitle)
	a.Author = nil
	a.Client = nil
	r := newEnsemble(t).ValidateComplete(context.Background(), generate(a), validation.DefaultOptions())

	assert.False(t, r.Schema.Valid)
	joined := strings.Join(r.Schema.Errors, "\n")
	assert.Contains(t, joined, "author")
	assert.Contains(t, joined, "publisher")
	assert.Len(t, r.Business.Errors, 2)
}

func TestEnsemble_BadDateIsSchemaError(t *testing.T) {
	g := generate(validArticle(goodTitle))
	art, _ := jsonld.FindFirst[*jsonld.Article](g)
	art.DatePublished = "last tuesday"

	r := newEnsemble(t).ValidateComplete(context.Background(), g, validation.DefaultOptions())
	assert.False(t, r.Schema.Valid)
	assert.Contains(t, strings.Join(r.Schema.Errors, "\n"), "datePublished")
}

func TestEnsemble_StructuralFindings(t *testing.T) {
	g := generate(validArticle(goodTitle))
	g.Nodes = append(g.Nodes, &jsonld.GenericNode{
		Type: "Widget",
		ID:   "https://example.com/articles/a1#widget",
		Properties: map[string]any{
			"name":                       "w",
			"madeUpProperty":             "x",
			"awards":                     "Best",
			"http://purl.org/dc/terms/x": "dc",
		},
	})
	org, _ := jsonld.FindFirst[*jsonld.Organization](g)
	org.Type = "Person"
	art, _ := jsonld.FindFirst[*jsonld.Article](g)
	art.Author = jsonld.RefTo("https://example.com/articles/a1#primary-image")

	r := newEnsemble(t).ValidateComplete(context.Background(), g, validation.DefaultOptions())
	assert.False(t, r.Structural.Valid)

	var errs, warns []string
	for _, i := range r.Structural.Errors {
		errs = append(errs, i.Message)
	}
	for _, i := range r.Structural.Warnings {
		warns = append(warns, i.Message)
	}
	joinedErrs := strings.Join(errs, "\n")
	assert.Contains(t, joinedErrs, `Unknown schema.org type "Widget"`)
	assert.Contains(t, joinedErrs, `Unknown schema.org property "madeUpProperty"`)
	assert.Contains(t, joinedErrs, `Property "logo" is not expected on type Person`)
	assert.Contains(t, joinedErrs, `not in the range of "author"`)

	joinedWarns := strings.Join(warns, "\n")
	assert.Contains(t, joinedWarns, `"awards" is superseded by "award"`)
	assert.Contains(t, joinedWarns, "not a schema.org property")
}

type failingSource struct{}

func (failingSource) Load(context.Context) (*schemaorg.Vocabulary, error) {
	return nil, errors.New("offline")
}

func TestEnsemble_VocabularyUnavailable(t *testing.T) {
	e, err := validation.NewEnsemble(schemaorg.NewCache(failingSource{}), normalize.NewNormalizer(nil, nil))
	require.NoError(t, err)

	r := e.ValidateComplete(context.Background(), generate(validArticle(goodTitle)), validation.DefaultOptions())
	assert.False(t, r.Structural.Valid)
	require.Len(t, r.Structural.Errors, 1)
	assert.Contains(t, r.Structural.Errors[0].Message, "unavailable")
	assert.True(t, r.Schema.Valid)
}

type panickingExpander struct{}

func (panickingExpander) Expand(any) ([]any, error) { panic("boom") }

func TestEnsemble_RecoversValidatorPanic(t *testing.T) {
	e, err := validation.NewEnsemble(schemaorgtest.NewCache(), panickingExpander{})
	require.NoError(t, err)

	r := e.ValidateComplete(context.Background(), generate(validArticle(goodTitle)), validation.DefaultOptions())
	require.Len(t, r.Structural.Errors, 1)
	assert.Contains(t, r.Structural.Errors[0].Message, "boom")
	assert.True(t, r.Schema.Valid)
	assert.Empty(t, r.Business.Errors)
}

func TestBusinessRules_Options(t *testing.T) {
	noLogoNoHero := validArticle(goodTitle)
	noLogoNoHero.Client.Logo = nil
	noLogoNoHero.FeaturedImage = nil
	noLogoNoHero.Author.Bio = ""

	tests := []struct {
		name     string
		opts     validation.Options
		errors   int
		warnings int
	}{
		{"defaults", validation.DefaultOptions(), 1, 1},
		{"logo not required", validation.DefaultOptions().Apply(validation.Overrides{RequirePublisherLogo: boolPtr(false)}), 0, 1},
		{"hero not required", validation.DefaultOptions().Apply(validation.Overrides{RequireHeroImage: boolPtr(false)}), 1, 0},
		{"bio required", validation.DefaultOptions().Apply(validation.Overrides{RequireAuthorBio: boolPtr(true)}), 1, 2},
	}
	g := generate(noLogoNoHero)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validation.BusinessValidator{}.Validate(g, tt.opts)
			assert.Len(t, res.Errors, tt.errors, "%v", res.Errors)
			assert.Len(t, res.Warnings, tt.warnings, "%v", res.Warnings)
		})
	}
}

func TestBusinessRules_HeadlineWindow(t *testing.T) {
	opts := validation.DefaultOptions().Apply(validation.Overrides{MinHeadlineLength: intPtr(5), MaxHeadlineLength: intPtr(10)})
	res := validation.BusinessValidator{}.Validate(generate(validArticle("Eleven char")), opts)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "maximum of 10")
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, validation.DefaultOptions().Validate())

	bad := validation.DefaultOptions()
	bad.MaxHeadlineLength = 10
	assert.Error(t, bad.Validate())

	bad = validation.DefaultOptions()
	bad.MinHeadlineLength = -1
	assert.Error(t, bad.Validate())
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
