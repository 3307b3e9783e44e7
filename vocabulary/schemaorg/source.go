package schemaorg

import (
	"context"
	"fmt"
	"os"

	"github.com/modonty1-rgb/modonty-sub005/fetch"
)

// DefaultURL is the current schema.org release in JSON-LD.
const DefaultURL = "https://schema.org/version/latest/schemaorg-current-https.jsonld"

// Getter fetches a remote document.
type Getter interface {
	Get(ctx context.Context, rawURL, accept string) (*fetch.Result, error)
}

// HTTPSource loads the vocabulary from a URL.
type HTTPSource struct {
	URL    string
	Getter Getter
}

// NewHTTPSource creates a source for rawURL using getter.
func NewHTTPSource(rawURL string, getter Getter) *HTTPSource {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	return &HTTPSource{URL: rawURL, Getter: getter}
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) (*Vocabulary, error) {
	res, err := s.Getter.Get(ctx, s.URL, "application/ld+json, application/json;q=0.9")
	if err != nil {
		return nil, fmt.Errorf("fetch vocabulary: %w", err)
	}
	v, err := Parse(res.Body)
	if err != nil {
		return nil, err
	}
	v.Version = res.ETag
	return v, nil
}

// FileSource loads the vocabulary from a local release file.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(_ context.Context) (*Vocabulary, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}
