// Package schemaorgtest provides a small schema.org vocabulary for tests and
// offline runs. It covers every type and property the graph generator emits.
package schemaorgtest

import (
	"context"
	_ "embed"

	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

//go:embed schemaorg-subset.jsonld
var subset []byte

// Data returns the raw subset release document.
func Data() []byte {
	out := make([]byte, len(subset))
	copy(out, subset)
	return out
}

// Source serves the embedded subset.
type Source struct{}

// Load implements schemaorg.Source.
func (Source) Load(_ context.Context) (*schemaorg.Vocabulary, error) {
	return schemaorg.Parse(subset)
}

// NewCache returns a cache backed by the embedded subset.
func NewCache() *schemaorg.Cache {
	return schemaorg.NewCache(Source{})
}
