package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

// Ensemble runs the structural, schema and business validators
// concurrently and merges their results.
type Ensemble struct {
	structural *StructuralValidator
	schema     *SchemaValidator
	business   BusinessValidator
	logger     *slog.Logger
	now        func() time.Time
}

// EnsembleOption configures an Ensemble.
type EnsembleOption func(*Ensemble)

// WithClock overrides the clock stamped on reports.
func WithClock(now func() time.Time) EnsembleOption {
	return func(e *Ensemble) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EnsembleOption {
	return func(e *Ensemble) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnsemble creates an Ensemble.
func NewEnsemble(vocab *schemaorg.Cache, expander Expander, opts ...EnsembleOption) (*Ensemble, error) {
	schema, err := NewSchemaValidator()
	if err != nil {
		return nil, err
	}
	e := &Ensemble{
		structural: NewStructuralValidator(vocab, expander),
		schema:     schema,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ValidateComplete validates a typed graph.
func (e *Ensemble) ValidateComplete(ctx context.Context, g *jsonld.Graph, opts Options) Report {
	doc, err := g.ToDocument()
	if err != nil {
		msg := fmt.Sprintf("graph could not be encoded: %v", err)
		return Report{
			Structural:  StructuralResult{Errors: []Issue{{Message: msg}}},
			Schema:      SchemaResult{Errors: []string{msg}},
			Business:    e.business.Validate(g, opts),
			ValidatedAt: e.now().UTC(),
		}
	}
	return e.validate(ctx, doc, g, opts)
}

// ValidateDocument validates a raw JSON-LD document, such as a block
// extracted from a page. Properties the typed model does not carry are
// still seen by the structural and schema validators.
func (e *Ensemble) ValidateDocument(ctx context.Context, doc any, g *jsonld.Graph, opts Options) Report {
	return e.validate(ctx, doc, g, opts)
}

func (e *Ensemble) validate(ctx context.Context, doc any, g *jsonld.Graph, opts Options) Report {
	var report Report

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer e.recoverInto("structural", func(msg string) {
			report.Structural = StructuralResult{Errors: []Issue{{Message: msg}}}
		})
		report.Structural = e.structural.Validate(ctx, doc)
		return nil
	})
	eg.Go(func() error {
		defer e.recoverInto("schema", func(msg string) {
			report.Schema = SchemaResult{Errors: []string{msg}}
		})
		report.Schema = e.schema.Validate(doc)
		return nil
	})
	eg.Go(func() error {
		defer e.recoverInto("business", func(msg string) {
			report.Business = BusinessResult{Errors: []string{msg}}
		})
		report.Business = e.business.Validate(g, opts)
		return nil
	})
	_ = eg.Wait()

	report.ValidatedAt = e.now().UTC()
	return report
}

// recoverInto turns a validator panic into an error in that validator's own
// result.
func (e *Ensemble) recoverInto(name string, set func(msg string)) {
	if r := recover(); r != nil {
		e.logger.Error("validator panicked", "validator", name, "panic", r)
		set(fmt.Sprintf("%s validator failed: %v", name, r))
	}
}
