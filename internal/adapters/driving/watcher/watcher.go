// Package watcher ingests PDFs dropped into a directory.
// It is a driving adapter: filesystem events drive the ingest service.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// DefaultDebounce is the quiet period after the last write before a file is ingested.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrMissingIngestService is returned when no ingest service is provided.
	ErrMissingIngestService = errors.New("watcher: ingest service is required")

	// ErrNotDirectory is returned when the watched path is not a directory.
	ErrNotDirectory = errors.New("watcher: path is not a directory")
)

// Event reports the outcome of one ingest attempt.
type Event struct {
	Path   string
	Result *driving.IngestResult
	Err    error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialScan ingests the PDFs already in the directory on start.
func WithInitialScan(enabled bool) Option {
	return func(w *Watcher) {
		w.initialScan = enabled
	}
}

// WithMaxBytes skips files larger than n bytes. Zero means no limit.
func WithMaxBytes(n int64) Option {
	return func(w *Watcher) {
		w.maxBytes = n
	}
}

// WithNotify registers a callback invoked after every ingest attempt.
func WithNotify(fn func(Event)) Option {
	return func(w *Watcher) {
		w.notify = fn
	}
}

// Watcher watches one directory (not recursively) for new or changed PDFs.
type Watcher struct {
	dir         string
	ingest      driving.IngestService
	debounce    time.Duration
	initialScan bool
	maxBytes    int64
	notify      func(Event)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for dir.
func New(dir string, ingest driving.IngestService, opts ...Option) (*Watcher, error) {
	if ingest == nil {
		return nil, ErrMissingIngestService
	}

	w := &Watcher{
		dir:      filepath.Clean(dir),
		ingest:   ingest,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	logger.Section("Watch")
	logger.Info("watching %s (debounce %s)", w.dir, w.debounce)

	if w.initialScan {
		if err := w.scan(ctx); err != nil {
			return err
		}
	}

	ready := make(chan string, 16)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case path := <-ready:
			w.mu.Lock()
			delete(w.pending, path)
			w.mu.Unlock()
			w.ingestFile(ctx, path)
		}
	}
}

// handleFsEvent returns the path to ingest for a create or write of a
// visible PDF file. Removals and renames leave stored documents alone.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !isCandidate(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// schedule restarts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		// A timer that already fired has queued path. That ingest reads the
		// file later, so it picks up this write too.
		if t.Stop() {
			t.Reset(w.debounce)
		}
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// scan ingests the PDFs already present in the directory.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if !entry.Type().IsRegular() || !isCandidate(entry.Name()) {
			continue
		}
		w.ingestFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	result, err := w.readAndIngest(ctx, path)
	if err != nil {
		logger.Error("ingest %s: %v", filepath.Base(path), err)
	} else {
		logger.Info("ingested %s as %s (%d chunks)", filepath.Base(path), result.Document.ID, result.ChunkCount)
	}
	if w.notify != nil {
		w.notify(Event{Path: path, Result: result, Err: err})
	}
}

func (w *Watcher) readAndIngest(ctx context.Context, path string) (*driving.IngestResult, error) {
	if w.maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat: %w", err)
		}
		if info.Size() > w.maxBytes {
			return nil, domain.ErrUploadTooLarge
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return w.ingest.Ingest(ctx, &domain.RawDocument{
		Filename: filepath.Base(path),
		MIMEType: domain.MIMETypePDF,
		Content:  content,
		Source:   domain.SourceWatch,
	})
}

// isCandidate reports whether name is a visible file with a .pdf extension.
func isCandidate(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".pdf")
}
