// Package graph builds the JSON-LD knowledge graph for a content item.
package graph

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// Fragment suffixes appended to the canonical URL.
const (
	FragmentArticle      = "#article"
	FragmentOrganization = "#organization"
	FragmentAuthor       = "#author"
	FragmentBreadcrumb   = "#breadcrumb"
	FragmentFAQ          = "#faq"
	FragmentPrimaryImage = "#primary-image"
)

// DefaultTenantMarker identifies tenant-scoped paths that must not be used
// as the public canonical URL.
const DefaultTenantMarker = "/clients/"

// Site describes the public site the graph is published under.
type Site struct {
	Root          string
	Name          string
	Language      string
	Collection    string
	HomeName      string
	TenantMarkers []string
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the clock read for the dateModified fallback.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// Generator turns a hydrated content item into a graph. It performs no I/O.
type Generator struct {
	site Site
	now  func() time.Time
	text *textExtractor
}

// NewGenerator creates a Generator for site.
func NewGenerator(site Site, opts ...Option) *Generator {
	site.Root = strings.TrimRight(site.Root, "/")
	if site.Collection == "" {
		site.Collection = "articles"
	}
	if site.HomeName == "" {
		site.HomeName = "Home"
	}
	if site.TenantMarkers == nil {
		site.TenantMarkers = []string{DefaultTenantMarker}
	}
	g := &Generator{site: site, now: time.Now, text: newTextExtractor()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanonicalURL returns the addressing root for every node id of a.
func (g *Generator) CanonicalURL(a *content.Article) string {
	if u := strings.TrimSpace(a.CanonicalURL); u != "" && !g.tenantScoped(u) {
		return u
	}
	return g.site.Root + "/" + g.site.Collection + "/" + a.Slug
}

func (g *Generator) tenantScoped(u string) bool {
	for _, m := range g.site.TenantMarkers {
		if m != "" && strings.Contains(u, m) {
			return true
		}
	}
	return false
}

// Generate builds the graph. Nodes are emitted as WebPage, Article,
// Organization, Person, BreadcrumbList and, when FAQs exist, FAQPage. A
// missing author or publisher omits the node and its reference.
func (g *Generator) Generate(a *content.Article) *jsonld.Graph {
	canonical := g.CanonicalURL(a)
	body := g.text.extract(a.Content)

	description := a.Excerpt
	if description == "" {
		description = body.summary
	}
	lang := a.Language
	if lang == "" {
		lang = g.site.Language
	}
	published := formatTime(a.PublishedAt)
	modified := formatTime(a.UpdatedAt)
	if modified == "" {
		modified = published
	}
	if modified == "" {
		modified = g.now().UTC().Format(time.RFC3339)
	}

	images := buildImages(canonical, a)

	page := &jsonld.WebPage{
		Type:          jsonld.TypeWebPage,
		ID:            canonical,
		URL:           canonical,
		Name:          a.Title,
		Description:   description,
		InLanguage:    lang,
		Breadcrumb:    jsonld.RefTo(canonical + FragmentBreadcrumb),
		DatePublished: published,
		DateModified:  modified,
	}
	if a.FeaturedImage != nil && a.FeaturedImage.URL != "" {
		page.PrimaryImageOfPage = jsonld.RefTo(canonical + FragmentPrimaryImage)
	}

	article := &jsonld.Article{
		Type:             jsonld.TypeArticle,
		ID:               canonical + FragmentArticle,
		Headline:         a.Title,
		Description:      description,
		DatePublished:    published,
		DateModified:     modified,
		MainEntityOfPage: jsonld.RefTo(canonical),
		Image:            images,
		InLanguage:       lang,
		WordCount:        body.words,
		Citation:         citations(a.Citations),
		Mentions:         buildMentions(canonical, a.Keywords),
	}
	if a.Category != nil {
		article.ArticleSection = a.Category.Name
	}
	for _, t := range a.Tags {
		if t.Name != "" {
			article.Keywords = append(article.Keywords, t.Name)
		}
	}

	nodes := []jsonld.Node{page, article}

	if a.Client != nil {
		org := buildOrganization(canonical+FragmentOrganization, a.Client)
		article.Publisher = jsonld.RefTo(org.ID)
		nodes = append(nodes, org)
	}
	if a.Author != nil {
		person := buildPerson(canonical+FragmentAuthor, a.Author)
		article.Author = jsonld.RefTo(person.ID)
		nodes = append(nodes, person)
	}

	nodes = append(nodes, g.buildBreadcrumb(canonical, a))

	if faq := buildFAQ(canonical+FragmentFAQ, a.FAQs); faq != nil {
		nodes = append(nodes, faq)
	}

	return jsonld.NewGraph(nodes...)
}

func (g *Generator) buildBreadcrumb(canonical string, a *content.Article) *jsonld.BreadcrumbList {
	items := []jsonld.ListItem{{
		Type:     jsonld.TypeListItem,
		Position: 1,
		Name:     g.site.HomeName,
		Item:     g.site.Root + "/",
	}}
	if a.Category != nil && a.Category.Name != "" {
		item := jsonld.ListItem{Type: jsonld.TypeListItem, Position: len(items) + 1, Name: a.Category.Name}
		if a.Category.Slug != "" {
			item.Item = g.site.Root + "/categories/" + a.Category.Slug
		}
		items = append(items, item)
	}
	items = append(items, jsonld.ListItem{
		Type:     jsonld.TypeListItem,
		Position: len(items) + 1,
		Name:     a.Title,
		Item:     canonical,
	})
	return &jsonld.BreadcrumbList{
		Type:            jsonld.TypeBreadcrumbList,
		ID:              canonical + FragmentBreadcrumb,
		ItemListElement: jsonld.List[jsonld.ListItem](items),
	}
}

// buildImages places the hero image first and the gallery after it in
// position order. Gallery ids start at #image-2 whether or not a hero exists.
func buildImages(canonical string, a *content.Article) jsonld.List[jsonld.ImageObject] {
	var images []jsonld.ImageObject
	if a.FeaturedImage != nil && a.FeaturedImage.URL != "" {
		img := imageObject(canonical+FragmentPrimaryImage, a.FeaturedImage)
		img.RepresentativeOfPage = true
		images = append(images, img)
	}

	gallery := make([]content.GalleryImage, 0, len(a.Gallery))
	for _, gi := range a.Gallery {
		if gi.Media.URL != "" {
			gallery = append(gallery, gi)
		}
	}
	sort.SliceStable(gallery, func(i, j int) bool {
		return gallery[i].Position < gallery[j].Position
	})
	for i := range gallery {
		id := canonical + "#image-" + strconv.Itoa(i+2)
		images = append(images, imageObject(id, &gallery[i].Media))
	}
	return jsonld.ListOf(images...)
}

func imageObject(id string, m *content.Media) jsonld.ImageObject {
	return jsonld.ImageObject{
		Type:       jsonld.TypeImageObject,
		ID:         id,
		URL:        m.URL,
		ContentURL: m.URL,
		Caption:    firstNonEmpty(m.Caption, m.AltText),
		Width:      m.Width,
		Height:     m.Height,
	}
}

func buildMentions(canonical string, terms []content.SemanticTerm) jsonld.List[jsonld.Thing] {
	var out []jsonld.Thing
	for _, term := range terms {
		name := strings.TrimSpace(term.Name)
		if name == "" {
			continue
		}
		thing := jsonld.Thing{
			Type: jsonld.TypeThing,
			ID:   canonical + "#mention-" + strconv.Itoa(len(out)+1),
			Name: name,
		}
		if same := sameAsFor(term); same != "" {
			thing.SameAs = jsonld.ListOf(same)
		}
		out = append(out, thing)
	}
	return jsonld.ListOf(out...)
}

func sameAsFor(term content.SemanticTerm) string {
	u := strings.TrimSpace(term.URL)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if id := strings.TrimSpace(term.WikidataID); id != "" {
		return "https://www.wikidata.org/wiki/" + id
	}
	return ""
}

func buildPerson(id string, a *content.Author) *jsonld.Person {
	p := &jsonld.Person{
		Type:        jsonld.TypePerson,
		ID:          id,
		Name:        a.Name,
		URL:         a.URL,
		Description: a.Bio,
		JobTitle:    a.JobTitle,
		SameAs:      jsonld.ListOf(a.SameAs...),
	}
	if a.Image != nil && a.Image.URL != "" {
		p.Image = &jsonld.ImageObject{Type: jsonld.TypeImageObject, URL: a.Image.URL}
	}
	return p
}

func buildFAQ(id string, faqs []content.FAQ) *jsonld.FAQPage {
	sorted := make([]content.FAQ, 0, len(faqs))
	for _, f := range faqs {
		if strings.TrimSpace(f.Question) != "" {
			sorted = append(sorted, f)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	questions := make([]jsonld.Question, 0, len(sorted))
	for _, f := range sorted {
		questions = append(questions, jsonld.Question{
			Type:           jsonld.TypeQuestion,
			Name:           f.Question,
			AcceptedAnswer: &jsonld.Answer{Type: jsonld.TypeAnswer, Text: f.Answer},
		})
	}
	return &jsonld.FAQPage{
		Type:       jsonld.TypeFAQPage,
		ID:         id,
		MainEntity: jsonld.List[jsonld.Question](questions),
	}
}

func citations(in []string) jsonld.List[string] {
	var out []string
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return jsonld.ListOf(out...)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
