// Package storage persists generated graphs with a bounded version history.
package storage

import (
	"time"

	"github.com/modonty1-rgb/modonty-sub005/validation"
)

// MaxHistory is the number of superseded versions kept per record.
const MaxHistory = 5

// HistoryEntry is a superseded graph version.
type HistoryEntry struct {
	Version   int       `json:"version"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the stored state of one content item's graph.
type Record struct {
	ContentID      string            `json:"content_id"`
	Graph          string            `json:"graph"`
	Report         validation.Report `json:"report"`
	Version        int               `json:"version"`
	History        []HistoryEntry    `json:"history,omitempty"`
	Normalized     bool              `json:"normalized"`
	NormalizeError string            `json:"normalize_error,omitempty"`
	Note           string            `json:"note,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Revision is a newly generated graph to be saved.
type Revision struct {
	Graph          string
	Report         validation.Report
	Normalized     bool
	NormalizeError string
}

// Versions lists the versions available for rollback, newest first.
func (r *Record) Versions() []int {
	out := make([]int, 0, len(r.History))
	for i := len(r.History) - 1; i >= 0; i-- {
		out = append(out, r.History[i].Version)
	}
	return out
}

// findVersion returns the most recent history entry with the given version.
func (r *Record) findVersion(version int) (HistoryEntry, bool) {
	for i := len(r.History) - 1; i >= 0; i-- {
		if r.History[i].Version == version {
			return r.History[i], true
		}
	}
	return HistoryEntry{}, false
}

// pushHistory appends the current graph to history, evicting the oldest
// entries beyond MaxHistory.
func (r *Record) pushHistory() {
	r.History = append(r.History, HistoryEntry{
		Version:   r.Version,
		Data:      r.Graph,
		Timestamp: r.UpdatedAt,
	})
	if n := len(r.History); n > MaxHistory {
		r.History = append([]HistoryEntry(nil), r.History[n-MaxHistory:]...)
	}
}
