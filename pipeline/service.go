// Package pipeline wires the write path: fetch, generate, normalize,
// validate, store. It also exposes rollback and the publish check.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modonty1-rgb/modonty-sub005/content"
	"github.com/modonty1-rgb/modonty-sub005/graph"
	"github.com/modonty1-rgb/modonty-sub005/jsonld"
	"github.com/modonty1-rgb/modonty-sub005/metrics"
	"github.com/modonty1-rgb/modonty-sub005/normalize"
	"github.com/modonty1-rgb/modonty-sub005/publish"
	"github.com/modonty1-rgb/modonty-sub005/storage"
	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// Service runs the write path for content records.
type Service struct {
	fetcher    content.Fetcher
	generator  *graph.Generator
	normalizer *normalize.Normalizer
	ensemble   *validation.Ensemble
	store      *storage.Store
	options    validation.Options
	metrics    *metrics.Collector
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithValidationOptions sets the business-rule options used for every run.
func WithValidationOptions(opts validation.Options) Option {
	return func(s *Service) { s.options = opts }
}

// WithMetrics records pipeline metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(
	fetcher content.Fetcher,
	generator *graph.Generator,
	normalizer *normalize.Normalizer,
	ensemble *validation.Ensemble,
	store *storage.Store,
	opts ...Option,
) *Service {
	s := &Service{
		fetcher:    fetcher,
		generator:  generator,
		normalizer: normalizer,
		ensemble:   ensemble,
		store:      store,
		options:    validation.DefaultOptions(),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying record store.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Options returns the validation options in effect.
func (s *Service) Options() validation.Options {
	return s.options
}

// Outcome is the result of regenerating one content record.
type Outcome struct {
	ContentID      string            `json:"content_id"`
	Version        int               `json:"version"`
	Graph          json.RawMessage   `json:"graph"`
	Report         validation.Report `json:"report"`
	Normalized     bool              `json:"normalized"`
	NormalizeError string            `json:"normalize_error,omitempty"`
	Decision       publish.Decision  `json:"decision"`
}

// Regenerate rebuilds, validates and stores the graph for id.
func (s *Service) Regenerate(ctx context.Context, id string) (out *Outcome, err error) {
	start := s.now()
	defer func() {
		s.metrics.ObserveRegenerate(err == nil, s.now().Sub(start))
	}()

	article, err := s.fetcher.FetchArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}

	g, norm := s.normalizer.Normalize(ctx, s.generator.Generate(article))
	var normErr string
	if !norm.Applied {
		s.metrics.ObserveNormalizeFailure()
		if norm.Err != nil {
			normErr = norm.Err.Error()
		}
	}

	report := s.ensemble.ValidateComplete(ctx, g, s.options)
	s.observeReport(report)

	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode graph %s: %w", id, err)
	}
	rec, err := s.store.Save(ctx, id, storage.Revision{
		Graph:          string(data),
		Report:         report,
		Normalized:     norm.Applied,
		NormalizeError: normErr,
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", id, err)
	}

	decision := publish.CanPublish(report, requiredFields(article))
	s.logger.Info("graph regenerated",
		"content_id", id,
		"version", rec.Version,
		"errors", report.ErrorCount(),
		"warnings", report.WarningCount(),
		"normalized", norm.Applied)

	return &Outcome{
		ContentID:      id,
		Version:        rec.Version,
		Graph:          data,
		Report:         report,
		Normalized:     norm.Applied,
		NormalizeError: normErr,
		Decision:       decision,
	}, nil
}

// Callbacks receive batch progress. Either may be nil.
type Callbacks struct {
	// OnProgress is called after each item with the number processed so far.
	OnProgress func(done, total int, id string)
	// OnError is called for each failed item.
	OnError func(id string, err error)
}

// ItemResult is the outcome of one batch item.
type ItemResult struct {
	ContentID string `json:"content_id"`
	Success   bool   `json:"success"`
	Version   int    `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResult summarizes a batch regeneration.
type BatchResult struct {
	RunID        string       `json:"run_id"`
	SuccessCount int          `json:"success_count"`
	FailCount    int          `json:"fail_count"`
	Results      []ItemResult `json:"results"`
}

// RegenerateBatch regenerates ids one after another. A failed item is
// recorded and the batch moves on; only context cancellation stops it
// early, in which case the remaining items are reported as failed.
func (s *Service) RegenerateBatch(ctx context.Context, ids []string, cb Callbacks) BatchResult {
	res := BatchResult{RunID: uuid.NewString(), Results: make([]ItemResult, 0, len(ids))}
	logger := s.logger.With("run_id", res.RunID)
	logger.Info("batch regeneration started", "items", len(ids))

	for i, id := range ids {
		item := ItemResult{ContentID: id}
		var err error
		if err = ctx.Err(); err == nil {
			var out *Outcome
			if out, err = s.Regenerate(ctx, id); err == nil {
				item.Success = true
				item.Version = out.Version
			}
		}

		if err != nil {
			item.Error = err.Error()
			res.FailCount++
			logger.Warn("batch item failed", "content_id", id, "error", err)
			if cb.OnError != nil {
				cb.OnError(id, err)
			}
		} else {
			res.SuccessCount++
		}
		res.Results = append(res.Results, item)

		if cb.OnProgress != nil {
			cb.OnProgress(i+1, len(ids), id)
		}
	}

	logger.Info("batch regeneration finished", "success", res.SuccessCount, "failed", res.FailCount)
	return res
}

// RollbackResult is the caller-facing outcome of a rollback.
type RollbackResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Version int    `json:"version,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Rollback restores a previous version of id's graph and re-validates it.
// The fresh report is stored without creating a new version.
func (s *Service) Rollback(ctx context.Context, id string, version int) RollbackResult {
	rec, err := s.store.Rollback(ctx, id, version)
	if err != nil {
		s.metrics.ObserveRollback(false)
		s.logger.Warn("rollback failed", "content_id", id, "version", version, "error", err)
		return RollbackResult{Error: err.Error()}
	}

	report, verr := s.revalidate(ctx, rec.Graph)
	if verr != nil {
		s.logger.Warn("restored graph could not be validated", "content_id", id, "error", verr)
		// The previous report describes the superseded graph; replace it
		// with one that blocks publishing.
		report = validation.Report{
			Business:    validation.BusinessResult{Errors: []string{"Restored graph could not be validated: " + verr.Error()}},
			ValidatedAt: s.now().UTC(),
		}
	}
	if _, err := s.store.SetReport(ctx, id, report); err != nil {
		s.metrics.ObserveRollback(false)
		return RollbackResult{Error: fmt.Sprintf("graph restored but report not saved: %v", err), Version: rec.Version, Note: rec.Note}
	}
	if verr != nil {
		s.metrics.ObserveRollback(false)
		return RollbackResult{Error: fmt.Sprintf("graph restored but not re-validated: %v", verr), Version: rec.Version, Note: rec.Note}
	}

	s.metrics.ObserveRollback(true)
	s.logger.Info("graph rolled back", "content_id", id, "version", rec.Version)
	return RollbackResult{Success: true, Version: rec.Version, Note: rec.Note}
}

func (s *Service) revalidate(ctx context.Context, data string) (validation.Report, error) {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return validation.Report{}, fmt.Errorf("decode stored graph: %w", err)
	}
	g, err := jsonld.Parse([]byte(data))
	if err != nil {
		return validation.Report{}, err
	}
	report := s.ensemble.ValidateDocument(ctx, doc, g, s.options)
	s.observeReport(report)
	return report, nil
}

// CanPublish evaluates the publish policy against the stored report for id.
func (s *Service) CanPublish(ctx context.Context, id string, required publish.RequiredFields) (publish.Decision, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return publish.Decision{}, err
	}
	d := publish.CanPublish(rec.Report, required)
	s.metrics.ObservePublish(d.Allowed)
	return d, nil
}

// Delete removes the stored graph for id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.logger.Info("graph deleted", "content_id", id)
	return nil
}

func (s *Service) observeReport(r validation.Report) {
	s.metrics.ObserveFindings("structural", len(r.Structural.Errors), len(r.Structural.Warnings))
	s.metrics.ObserveFindings("schema", len(r.Schema.Errors), len(r.Schema.Warnings))
	s.metrics.ObserveFindings("business", len(r.Business.Errors), len(r.Business.Warnings))
}

func requiredFields(a *content.Article) publish.RequiredFields {
	hasTitle := a.Title != ""
	hasSlug := a.Slug != ""
	hasDate := a.PublishedAt != nil
	return publish.RequiredFields{HasTitle: &hasTitle, HasSlug: &hasSlug, HasDatePublished: &hasDate}
}
