package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/franz/fitkeeper/internal/report"
	"github.com/franz/fitkeeper/internal/store"
	"github.com/franz/fitkeeper/internal/util"
)

// settleDelay is how long a file must stay quiet before it is imported.
// Copies into the inbox arrive as a burst of writes; importing mid-copy
// would hash a truncated file.
const settleDelay = time.Second

// Watcher imports activity files dropped into an inbox directory
type Watcher struct {
	importer *Importer
	inbox    string
}

// NewWatcher creates an inbox watcher
func NewWatcher(importer *Importer, inbox string) *Watcher {
	return &Watcher{importer: importer, inbox: inbox}
}

// Run watches the inbox until the context is cancelled. Files already
// present at startup are imported first.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.inbox, 0755); err != nil {
		return err
	}

	w.importExisting(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.inbox); err != nil {
		return err
	}
	util.InfoLog("Watching inbox %s", w.inbox)

	// pending maps path to the time of its last write event
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isActivityPath(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[event.Name] = time.Now()
				if w.importer.logger != nil {
					w.importer.logger.LogWatch(event.Name, "pending")
				}
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("Watcher error: %v", err)
			if w.importer.logger != nil {
				w.importer.logger.LogError(report.EventWatch, w.inbox, err)
			}

		case <-ticker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				w.importer.ImportFile(path, store.OriginUpload, "")
			}
		}
	}
}

// importExisting imports files sitting in the inbox before watching began
func (w *Watcher) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		util.WarnLog("Failed to read inbox: %v", err)
		return
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isActivityPath(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.inbox, entry.Name()))
	}
	if len(paths) == 0 {
		return
	}

	util.InfoLog("Importing %d existing inbox files", len(paths))
	w.importer.ImportBatch(ctx, paths, store.OriginUpload, "", nil)
}

func isActivityPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".fit")
}
