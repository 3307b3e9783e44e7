package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/modonty1-rgb/modonty-sub005/fetch"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/metrics"
	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// Validator is the part of the ensemble the auditor needs.
type Validator interface {
	ValidateDocument(ctx context.Context, doc any, g *jsonld.Graph, opts validation.Options) validation.Report
}

// Getter fetches a page. *fetch.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL, accept string) (*fetch.Result, error)
}

// BlockReport is the audit of one structured-data block.
type BlockReport struct {
	Index  int                `json:"index"`
	Format Format             `json:"format"`
	Types  []string           `json:"types,omitempty"`
	Error  string             `json:"error,omitempty"`
	Report *validation.Report `json:"report,omitempty"`
}

// PageText is what readability found in the page body.
type PageText struct {
	Title   string `json:"title,omitempty"`
	Byline  string `json:"byline,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	Length  int    `json:"length"`
}

// PageReport is the audit of one rendered page.
type PageReport struct {
	URL       string        `json:"url,omitempty"`
	Blocks    []BlockReport `json:"blocks"`
	Warnings  []string      `json:"warnings"`
	Text      *PageText     `json:"text,omitempty"`
	AuditedAt time.Time     `json:"audited_at"`
}

// Valid reports whether every block decoded and validated without errors.
func (r *PageReport) Valid() bool {
	for _, b := range r.Blocks {
		if b.Error != "" || (b.Report != nil && b.Report.ErrorCount() > 0) {
			return false
		}
	}
	return len(r.Blocks) > 0
}

// Auditor validates the structured data of rendered pages.
type Auditor struct {
	validator Validator
	getter    Getter
	metrics   *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithGetter enables AuditURL.
func WithGetter(g Getter) AuditorOption {
	return func(a *Auditor) { a.getter = g }
}

// WithMetrics records audit results on c.
func WithMetrics(c *metrics.Collector) AuditorOption {
	return func(a *Auditor) { a.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuditor creates an Auditor.
func NewAuditor(v Validator, opts ...AuditorOption) *Auditor {
	a := &Auditor{validator: v, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuditURL fetches an HTTPS page and audits it.
func (a *Auditor) AuditURL(ctx context.Context, rawURL string, opts validation.Options) (*PageReport, error) {
	if a.getter == nil {
		return nil, fmt.Errorf("auditor has no page fetcher")
	}
	res, err := a.getter.Get(ctx, rawURL, "")
	if err != nil {
		a.metrics.ObserveAudit(false)
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return a.Audit(ctx, string(res.Body), res.URL, opts), nil
}

// Audit extracts every structured block from page, validates each one and
// cross-checks the Article against the readable text of the page.
func (a *Auditor) Audit(ctx context.Context, page, pageURL string, opts validation.Options) *PageReport {
	report := &PageReport{URL: pageURL, Blocks: []BlockReport{}, Warnings: []string{}}
	defer func() {
		report.AuditedAt = a.now().UTC()
		a.metrics.ObserveAudit(report.Valid())
	}()

	blocks, err := Extract(page)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Page could not be parsed: %v", err))
		return report
	}
	if len(blocks) == 0 {
		report.Warnings = append(report.Warnings, "Page has no structured data")
	}

	var article *articleFacts
	for i, b := range blocks {
		br := BlockReport{Index: i, Format: b.Format, Types: b.Types(), Error: b.Error}
		if b.Error == "" {
			g, err := b.Graph()
			if err != nil {
				br.Error = err.Error()
			} else {
				r := a.validator.ValidateDocument(ctx, b.Data, g, opts)
				br.Report = &r
				if article == nil {
					article = findArticle(b.Data)
				}
			}
		}
		report.Blocks = append(report.Blocks, br)
	}

	report.Text = readableText(page, pageURL, a.logger)
	if article != nil && report.Text != nil {
		report.Warnings = append(report.Warnings, crossCheck(article, report.Text)...)
	}

	a.logger.Debug("page audited", "url", pageURL, "blocks", len(report.Blocks), "warnings", len(report.Warnings))
	return report
}

func readableText(page, pageURL string, logger *slog.Logger) *PageText {
	u, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		u = &url.URL{Scheme: "https", Host: "localhost"}
	}
	art, err := readability.FromReader(strings.NewReader(page), u)
	if err != nil {
		logger.Debug("readability failed", "url", pageURL, "error", err)
		return nil
	}
	return &PageText{
		Title:   strings.TrimSpace(art.Title),
		Byline:  strings.TrimSpace(art.Byline),
		Excerpt: strings.TrimSpace(art.Excerpt),
		Length:  art.Length,
	}
}

type articleFacts struct {
	headline string
	author   string
}

// findArticle returns the headline and author name of the first Article
// node in a decoded document. An author given by reference is resolved
// against the other nodes of the same document.
func findArticle(data any) *articleFacts {
	nodes := topNodes(data)
	byID := make(map[string]map[string]any, len(nodes))
	for _, n := range nodes {
		if id, ok := n["@id"].(string); ok {
			byID[id] = n
		}
	}
	for _, n := range nodes {
		if !jsonld.IsArticleType(typeOf(n)) {
			continue
		}
		facts := &articleFacts{headline: stringValue(n["headline"])}
		author := n["author"]
		if list, ok := author.([]any); ok && len(list) > 0 {
			author = list[0]
		}
		if m, ok := author.(map[string]any); ok {
			if name := stringValue(m["name"]); name != "" {
				facts.author = name
			} else if ref, ok := byID[stringValue(m["@id"])]; ok {
				facts.author = stringValue(ref["name"])
			}
		} else if s, ok := author.(string); ok {
			facts.author = s
		}
		return facts
	}
	return nil
}

func crossCheck(article *articleFacts, text *PageText) []string {
	var warnings []string
	if article.headline != "" && text.Title != "" && !similar(article.headline, text.Title) {
		warnings = append(warnings, fmt.Sprintf("Article headline %q does not match the page title %q", article.headline, text.Title))
	}
	if article.author != "" && text.Byline != "" && !similar(article.author, text.Byline) {
		warnings = append(warnings, fmt.Sprintf("Article author %q does not match the page byline %q", article.author, text.Byline))
	}
	return warnings
}

// similar reports whether one string contains the other, ignoring case and
// whitespace differences. Titles often carry a site-name suffix.
func similar(a, b string) bool {
	a = strings.ToLower(strings.Join(strings.Fields(a), " "))
	b = strings.ToLower(strings.Join(strings.Fields(b), " "))
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	}
	return ""
}
