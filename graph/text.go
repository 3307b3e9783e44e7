package graph

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const summaryLength = 160

var (
	mdLinkRe   = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdMarkupRe = regexp.MustCompile("[#*_>`|~]+")
	spaceRe    = regexp.MustCompile(`\s+`)
)

type bodyText struct {
	words   int
	summary string
}

// textExtractor reduces article HTML to plain prose for word counts and the
// description fallback.
type textExtractor struct {
	converter *md.Converter
}

func newTextExtractor() *textExtractor {
	return &textExtractor{converter: md.NewConverter("", true, nil)}
}

func (t *textExtractor) extract(html string) bodyText {
	if strings.TrimSpace(html) == "" {
		return bodyText{}
	}
	markdown, err := t.converter.ConvertString(html)
	if err != nil {
		return bodyText{}
	}
	plain := mdLinkRe.ReplaceAllString(markdown, "$1")
	plain = mdMarkupRe.ReplaceAllString(plain, "")
	plain = strings.TrimSpace(spaceRe.ReplaceAllString(plain, " "))

	words := 0
	for _, f := range strings.Fields(plain) {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			words++
		}
	}
	return bodyText{words: words, summary: truncate(plain, summaryLength)}
}

// truncate cuts s to at most n runes on a word boundary.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
