package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// BusinessValidator applies content policy to a typed graph.
type BusinessValidator struct{}

// Validate evaluates every rule; no rule short-circuits another.
func (BusinessValidator) Validate(g *jsonld.Graph, opts Options) BusinessResult {
	var res BusinessResult
	errorf := func(format string, args ...any) { res.Errors = append(res.Errors, fmt.Sprintf(format, args...)) }
	warnf := func(format string, args ...any) { res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...)) }
	infof := func(format string, args ...any) { res.Info = append(res.Info, fmt.Sprintf(format, args...)) }

	if g == nil {
		errorf("Document is not a JSON-LD graph")
		return res
	}
	idx := g.Index()
	infof("Graph has %d nodes", len(g.Nodes))

	article, ok := jsonld.FindFirst[*jsonld.Article](g)
	if !ok {
		errorf("Graph has no Article node")
		return res
	}

	publisher, ok := jsonld.Resolve[*jsonld.Organization](idx, article.Publisher)
	switch {
	case !ok:
		errorf("Publisher must reference an Organization in the graph")
	case opts.RequirePublisherLogo && (publisher.Logo == nil || publisher.Logo.URL == ""):
		errorf("Publisher organization must have a logo")
	}

	author, ok := jsonld.Resolve[*jsonld.Person](idx, article.Author)
	switch {
	case !ok:
		errorf("Author must reference a Person in the graph")
	case strings.TrimSpace(author.Name) == "":
		errorf("Author must have a name")
	case opts.RequireAuthorBio && strings.TrimSpace(author.Description) == "":
		warnf("Author bio is recommended")
	}

	if opts.RequireHeroImage && !hasHeroImage(article) {
		warnf("Hero image is strongly recommended")
	}

	n := utf8.RuneCountInString(article.Headline)
	if n < opts.MinHeadlineLength {
		warnf("Headline is %d characters, shorter than the recommended minimum of %d", n, opts.MinHeadlineLength)
	}
	if opts.MaxHeadlineLength > 0 && n > opts.MaxHeadlineLength {
		warnf("Headline is %d characters, longer than the recommended maximum of %d", n, opts.MaxHeadlineLength)
	}

	if strings.TrimSpace(article.Description) == "" {
		warnf("Article description is missing")
	}

	if published, ok := parseDate(article.DatePublished); ok {
		if modified, ok := parseDate(article.DateModified); ok && modified.Before(published) {
			warnf("dateModified %s is before datePublished %s", article.DateModified, article.DatePublished)
		}
	}

	if bc, ok := jsonld.FindFirst[*jsonld.BreadcrumbList](g); ok {
		page, hasPage := jsonld.FindFirst[*jsonld.WebPage](g)
		if last, ok := lastCrumb(bc); ok && hasPage && last.Item != page.ID {
			warnf("Breadcrumb should end at the page URL %s", page.ID)
		}
	}

	if faq, ok := jsonld.FindFirst[*jsonld.FAQPage](g); ok {
		infof("FAQ has %d questions", len(faq.MainEntity))
	}
	if len(article.Mentions) > 0 {
		infof("Article mentions %d entities", len(article.Mentions))
	}
	return res
}

func hasHeroImage(a *jsonld.Article) bool {
	for _, img := range a.Image {
		if img.RepresentativeOfPage || strings.HasSuffix(img.ID, "#primary-image") {
			return true
		}
	}
	return false
}

func lastCrumb(bc *jsonld.BreadcrumbList) (jsonld.ListItem, bool) {
	var last jsonld.ListItem
	found := false
	for _, item := range bc.ItemListElement {
		if !found || item.Position >= last.Position {
			last = item
			found = true
		}
	}
	return last, found
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
