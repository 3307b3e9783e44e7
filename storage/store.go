package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// maxAttempts bounds the read-modify-write retries on ErrConflict.
const maxAttempts = 3

// Store manages versioned graph records on a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{backend: backend, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if err := ValidateKey(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	rec, _, err := s.load(ctx, id)
	return rec, err
}

// Save stores a new version for id. The current graph moves to history and
// the version increases by one; the first save creates version 1.
func (s *Store) Save(ctx context.Context, id string, rev Revision) (*Record, error) {
	return s.mutate(ctx, id, true, func(rec *Record) error {
		if rec.Version > 0 {
			rec.pushHistory()
		}
		rec.Version++
		rec.Graph = rev.Graph
		rec.Report = rev.Report
		rec.Normalized = rev.Normalized
		rec.NormalizeError = rev.NormalizeError
		rec.Note = ""
		rec.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Rollback restores the graph of target from history. History itself is
// left as is. The record's note describes what changed.
func (s *Store) Rollback(ctx context.Context, id string, target int) (*Record, error) {
	return s.mutate(ctx, id, false, func(rec *Record) error {
		entry, ok := rec.findVersion(target)
		if !ok {
			return fmt.Errorf("%w: version %d of %s", ErrVersionNotFound, target, id)
		}
		rec.Note = DiffSummary(rec.Graph, entry.Data, rec.Version, target)
		rec.Graph = entry.Data
		rec.Version = target
		rec.UpdatedAt = s.now().UTC()
		return nil
	})
}

// SetReport replaces the stored report without creating a version.
func (s *Store) SetReport(ctx context.Context, id string, report validation.Report) (*Record, error) {
	return s.mutate(ctx, id, false, func(rec *Record) error {
		rec.Report = report
		return nil
	})
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ValidateKey(id); err != nil {
		return fmt.Errorf("%w: %q", err, id)
	}
	if _, err := s.backend.Get(ctx, id); err != nil {
		return err
	}
	return s.backend.Delete(ctx, id)
}

// List returns the stored content ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx)
}

func (s *Store) load(ctx context.Context, id string) (*Record, uint64, error) {
	entry, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	var rec Record
	if err := json.Unmarshal(entry.Value, &rec); err != nil {
		return nil, 0, fmt.Errorf("unmarshal record %s: %w", id, err)
	}
	return &rec, entry.Revision, nil
}

// mutate applies fn to the stored record with compare-and-swap, retrying
// when another writer got there first. create allows a missing record.
func (s *Store) mutate(ctx context.Context, id string, create bool, fn func(*Record) error) (*Record, error) {
	if err := ValidateKey(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rec, revision, err := s.load(ctx, id)
		exists := err == nil
		switch {
		case errors.Is(err, ErrNotFound) && create:
			rec = &Record{ContentID: id}
		case err != nil:
			return nil, err
		}

		if err := fn(rec); err != nil {
			return nil, err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal record %s: %w", id, err)
		}

		if exists {
			_, err = s.backend.Update(ctx, id, data, revision)
		} else {
			_, err = s.backend.Create(ctx, id, data)
		}
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("record changed concurrently, retrying", "content_id", id, "attempt", attempt)
	}
	return nil, fmt.Errorf("save %s: %w", id, lastErr)
}
