package normalize

import (
	"bytes"
	_ "embed"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// vocabContext is a vocabulary-only stand-in for the published schema.org
// context: it maps every term to https://schema.org/ and carries none of the
// published @id or Date coercions and no keyword aliases. Compacting against
// it keeps @id and @type as keywords and every value as a plain literal,
// which is the shape the jsonld decoder reads back.
//
//go:embed contexts/schemaorg-vocab.jsonld
var vocabContext []byte

// schemaOrgContextURLs are served from vocabContext.
var schemaOrgContextURLs = map[string]bool{
	"https://schema.org":                           true,
	"http://schema.org":                            true,
	"https://schema.org/docs/jsonldcontext.jsonld": true,
	"http://schema.org/docs/jsonldcontext.jsonld":  true,
}

// IsSchemaOrgContext reports whether u names the schema.org context.
func IsSchemaOrgContext(u string) bool {
	return schemaOrgContextURLs[strings.TrimRight(u, "/")]
}

// DocumentLoader serves vocabContext for the schema.org URLs without
// network access and passes every other URL to a fallback loader.
type DocumentLoader struct {
	fallback ld.DocumentLoader
}

// NewDocumentLoader creates a loader; a nil fallback uses json-gold's
// default HTTP loader.
func NewDocumentLoader(fallback ld.DocumentLoader) *DocumentLoader {
	if fallback == nil {
		fallback = ld.NewDefaultDocumentLoader(nil)
	}
	return &DocumentLoader{fallback: fallback}
}

// LoadDocument implements ld.DocumentLoader.
func (l *DocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if IsSchemaOrgContext(u) {
		doc, err := ld.DocumentFromReader(bytes.NewReader(vocabContext))
		if err != nil {
			return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
		}
		return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
	}
	return l.fallback.LoadDocument(u)
}

// Options returns processor options wired to loader.
func Options(loader ld.DocumentLoader) *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = loader
	return opts
}
