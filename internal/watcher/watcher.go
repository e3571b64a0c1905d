// Package watcher ingests documents dropped into a watched folder.
// Files are picked up once they stop growing, fed through the regular
// file ingestion path, and removed from the folder on success.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/keepstackapp/keepstack-server/internal/errors"
	"github.com/keepstackapp/keepstack-server/internal/service"
)

// ingestSource is the source label attached to lifecycle events for
// drop-folder imports.
const ingestSource = "drop-folder"

// Ingestor saves a dropped file as an article.
type Ingestor interface {
	AddByFile(ctx context.Context, userID string, req service.AddByFileRequest) (*service.IngestResult, error)
}

// Options configures the drop-folder watcher.
type Options struct {
	// Path is the folder to watch. Subdirectories are not descended into.
	Path string

	// UserID is the account imports are saved under.
	UserID string

	// SettleDelay is how long a file must stay unchanged before it is
	// considered fully written. Copies into the folder arrive in chunks,
	// so reacting to the first write would truncate them.
	SettleDelay time.Duration
}

func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = 2 * time.Second
	}
}

// pendingFile tracks a file that may still be growing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// DropWatcher watches a single folder and ingests settled documents.
type DropWatcher struct {
	opts    Options
	ingest  Ingestor
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile

	settled chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a drop-folder watcher. The folder must already exist.
func New(opts Options, ingest Ingestor, logger *slog.Logger) (*DropWatcher, error) {
	opts.setDefaults()

	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("stat drop folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("drop path %s is not a directory", opts.Path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(opts.Path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch drop folder: %w", err)
	}

	return &DropWatcher{
		opts:    opts,
		ingest:  ingest,
		watcher: fsw,
		logger:  logger.With("component", "drop-watcher", "path", opts.Path),
		pending: make(map[string]*pendingFile),
		settled: make(chan string, 64),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the folder until the context is cancelled. Documents
// already sitting in the folder at startup are imported first.
func (w *DropWatcher) Start(ctx context.Context) error {
	w.logger.Info("watching drop folder")

	w.wg.Add(1)
	go w.run(ctx)

	w.sweep()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case path := <-w.settled:
			w.importFile(ctx, path)
		}
	}
}

// Stop releases the watcher. Safe to call once.
func (w *DropWatcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// run translates raw filesystem events into settle timers.
func (w *DropWatcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !eligibleFile(event.Name) {
				continue
			}
			w.startSettling(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// sweep queues documents that were already in the folder when the
// watcher started.
func (w *DropWatcher) sweep() {
	entries, err := os.ReadDir(w.opts.Path)
	if err != nil {
		w.logger.Warn("initial sweep failed", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.opts.Path, entry.Name())
		if !eligibleFile(path) {
			continue
		}
		w.startSettling(path)
	}
}

// startSettling arms (or re-arms) the settle timer for a file.
func (w *DropWatcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(w.pending, path)
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = p
}

// checkSettled re-arms the timer while the file keeps changing and
// queues it for import once it holds still.
func (w *DropWatcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.pending[path]
	if !exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Removed before it settled.
		delete(w.pending, path)
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		return
	}

	delete(w.pending, path)
	select {
	case w.settled <- path:
	case <-w.done:
	}
}

// importFile runs a settled file through ingestion and removes it from
// the folder when it no longer needs to be retried.
func (w *DropWatcher) importFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read dropped file", "file", filepath.Base(path), "error", err)
		return
	}

	result, err := w.ingest.AddByFile(ctx, w.opts.UserID, service.AddByFileRequest{
		FileName: filepath.Base(path),
		Data:     data,
		Source:   ingestSource,
	})
	if err != nil {
		if errors.Is(err, errors.AlreadyExists("")) {
			w.logger.Info("dropped file already imported, removing", "file", filepath.Base(path))
			w.remove(path)
			return
		}
		// Leave the file in place; the user can fix and re-drop it.
		w.logger.Warn("failed to import dropped file", "file", filepath.Base(path), "error", err)
		return
	}

	w.logger.Info("imported dropped file",
		"file", filepath.Base(path), "article_id", result.Article.ID)
	w.remove(path)
}

func (w *DropWatcher) remove(path string) {
	if err := os.Remove(path); err != nil {
		w.logger.Warn("failed to remove imported file", "file", filepath.Base(path), "error", err)
	}
}

// eligibleFile filters out everything that is not a finished document:
// only .epub and .pdf files count, and hidden or partial files are
// skipped so in-progress downloads never get picked up.
func eligibleFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".epub", ".pdf":
		return true
	default:
		return false
	}
}
