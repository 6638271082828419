package trust

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/codefionn/execguard/internal/logger"
)

// Watcher reloads the rule file into a Store when it changes on disk. A
// rule file that fails to parse keeps the previous rules active.
type Watcher struct {
	path      string
	store     *Store
	watcher   *fsnotify.Watcher
	stopWatch chan struct{}
}

// NewWatcher starts watching path. The containing directory is watched so
// editors that replace the file (rename-over) are still observed.
func NewWatcher(path string, store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:      path,
		store:     store,
		watcher:   fsw,
		stopWatch: make(chan struct{}),
	}
	go w.watchFile()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopWatch)
	return w.watcher.Close()
}

func (w *Watcher) watchFile() {
	for {
		select {
		case <-w.stopWatch:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("trust: rule file watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		logger.Warn("trust: keeping previous rules, reload failed: %v", err)
		return
	}
	w.store.Replace(rules)
	logger.Info("trust: reloaded %d rules from %s", len(rules.Rules), w.path)
}
