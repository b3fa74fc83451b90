package catalog

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher rebuilds the catalog whenever a yaml file in the catalog directory
// changes and hands the fresh, immutable value to the swap callback. The old
// catalog is never mutated; in-flight advancements keep evaluating against
// the value they started with.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *log.Logger
	swap    func(*Catalog)

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching dir. swap is invoked with each successfully
// rebuilt catalog; rebuild failures are logged and the previous catalog stays
// in effect.
func NewWatcher(dir string, logger *log.Logger, swap func(*Catalog)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		watcher: fsw,
		logger:  logger,
		swap:    swap,
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			switch filepath.Ext(event.Name) {
			case ".yaml", ".yml":
			default:
				continue
			}
			w.logger.Printf("catalog_change file=%s op=%s", event.Name, event.Op)
			cat, err := LoadDir(w.dir)
			if err != nil {
				w.logger.Printf("catalog_reload_failed dir=%s error=%v", w.dir, err)
				continue
			}
			w.swap(cat)
			w.logger.Printf("catalog_reloaded dir=%s rules=%d", w.dir, cat.RuleCount())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("catalog_watch_error error=%v", err)
		}
	}
}

// Close stops the watcher and waits for the reload loop to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
