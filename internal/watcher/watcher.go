// Package watcher implements the drop-folder: files placed in a watched
// directory are ingested into the vault automatically.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// settleDelay is how long a file must stay quiet after its last write
// before it is ingested. Editors and downloads write in bursts; ingesting
// on the first event would read a partial file.
const settleDelay = 2 * time.Second

// DefaultExtensions are the file types picked up from the drop folder.
var DefaultExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".md", ".markdown"}

// Watcher monitors a directory and ingests new or rewritten files.
type Watcher struct {
	vault      driving.VaultService
	dir        string
	extensions map[string]bool
	fsw        *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. The directory is created if missing.
func New(vault driving.VaultService, dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	extensions := make(map[string]bool, len(DefaultExtensions))
	for _, ext := range DefaultExtensions {
		extensions[ext] = true
	}

	return &Watcher{
		vault:      vault,
		dir:        dir,
		extensions: extensions,
		fsw:        fsw,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is cancelled. Each created or rewritten
// file with a supported extension is ingested once it settles.
func (w *Watcher) Run(ctx context.Context) error {
	logger.Info("Watching drop folder: %s", w.dir)
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher: %v", err)
		}
	}
}

// schedule arms (or re-arms) the settle timer for a path. Repeated write
// events keep pushing ingestion back until the file goes quiet.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

// ingest hands a settled file to the vault.
func (w *Watcher) ingest(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	name := filepath.Base(path)
	req := driving.IngestRequest{
		FilePath:     path,
		OriginalName: name,
		FileType:     strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		FileSize:     info.Size(),
	}

	id, err := w.vault.Ingest(ctx, req)
	if err != nil {
		logger.Warn("Watcher: ingest %s: %v", name, err)
		return
	}
	logger.Info("Watcher: ingested %s as %s", name, id)
}

// cancelPending stops all armed settle timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
