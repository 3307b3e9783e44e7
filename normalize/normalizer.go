// Package normalize canonicalizes graphs by JSON-LD expansion and compaction
// against the schema.org context.
package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/piprate/json-gold/ld"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
)

// Outcome records which path Normalize took.
type Outcome struct {
	Applied bool
	Err     error
}

// Normalizer expands and re-compacts graphs.
type Normalizer struct {
	proc   *ld.JsonLdProcessor
	loader ld.DocumentLoader
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil loader uses NewDocumentLoader(nil).
func NewNormalizer(loader ld.DocumentLoader, logger *slog.Logger) *Normalizer {
	if loader == nil {
		loader = NewDocumentLoader(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{proc: ld.NewJsonLdProcessor(), loader: loader, logger: logger}
}

// Loader returns the document loader used for context resolution.
func (n *Normalizer) Loader() ld.DocumentLoader {
	return n.loader
}

// Normalize returns the compacted form of g. It never fails: on error the
// input graph is returned unchanged and the Outcome carries the cause.
func (n *Normalizer) Normalize(ctx context.Context, g *jsonld.Graph) (*jsonld.Graph, Outcome) {
	out, err := n.normalize(ctx, g)
	if err != nil {
		n.logger.Warn("JSON-LD normalization failed, keeping original graph", "error", err)
		return g, Outcome{Applied: false, Err: err}
	}
	return out, Outcome{Applied: true}
}

func (n *Normalizer) normalize(ctx context.Context, g *jsonld.Graph) (out *jsonld.Graph, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("json-ld processor panic: %v", r)
		}
	}()

	doc, err := g.ToDocument()
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	opts := Options(n.loader)
	expanded, err := n.proc.Expand(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	compacted, err := n.proc.Compact(expanded, map[string]any{"@context": jsonld.DefaultContext}, opts)
	if err != nil {
		return nil, fmt.Errorf("compact: %w", err)
	}

	data, err := json.Marshal(compacted)
	if err != nil {
		return nil, fmt.Errorf("encode compacted: %w", err)
	}
	out, err = jsonld.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode compacted: %w", err)
	}
	return out, nil
}

// Expand returns the expanded form of doc using the normalizer's loader.
func (n *Normalizer) Expand(doc any) ([]any, error) {
	return n.proc.Expand(doc, Options(n.loader))
}
