package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOperation indicates the type of record change.
type WatchOperation string

const (
	OpUpsert WatchOperation = "upsert"
	OpDelete WatchOperation = "delete"
)

// WatchEvent reports a changed content record.
type WatchEvent struct {
	ID        string
	Operation WatchOperation
}

// WatcherConfig configures the record watcher.
type WatcherConfig struct {
	// Dir is the directory holding <id>.json records.
	Dir string

	// DebounceDelay is how long to wait for more changes before emitting.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// Watcher watches a record directory and emits one event per changed record.
// Writes that leave the file content unchanged are ignored.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	hashMu sync.Mutex
	hashes map[string]string // id → content hash

	events chan WatchEvent
}

// NewWatcher creates a watcher for config.Dir.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 250 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of record events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching. Events stop when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.config.Dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Content watcher started",
		"dir", w.config.Dir,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, isRecord := IDFromPath(event.Name); !isRecord {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = event.Op
			w.pendingMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}
		id, _ := IDFromPath(path)

		data, err := os.ReadFile(path)
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) || os.IsNotExist(err) {
			w.hashMu.Lock()
			delete(w.hashes, id)
			w.hashMu.Unlock()
			w.send(WatchEvent{ID: id, Operation: OpDelete})
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read changed record", "path", path, "error", err)
			continue
		}

		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		w.hashMu.Lock()
		unchanged := w.hashes[id] == hash
		w.hashes[id] = hash
		w.hashMu.Unlock()
		if unchanged {
			continue
		}

		w.send(WatchEvent{ID: id, Operation: OpUpsert})
	}
}

func (w *Watcher) send(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent content event", "id", event.ID, "op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event", "id", event.ID)
	}
}
