// Package watchlist loads the comic watch list from a YAML file and hot
// reloads it when the file changes, so adding a comic does not require a
// restart.
package watchlist

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"pixiu/internal/sources"
)

type fileFormat struct {
	Comics []sources.WatchedComic `yaml:"comics"`
}

// Watchlist is the live view of the watch list file.
type Watchlist struct {
	path string

	mu     sync.RWMutex
	comics []sources.WatchedComic

	watcher *fsnotify.Watcher
}

// Load reads the watch list file. A missing file is not an error: the
// list starts empty and populates when the file appears.
func Load(path string) (*Watchlist, error) {
	w := &Watchlist{path: path}

	if err := w.reload(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("⚠️ Watch list %s not found, starting empty", path)
	}

	return w, nil
}

// Comics returns the current watch list.
func (w *Watchlist) Comics() []sources.WatchedComic {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.comics
}

// Watch starts watching the file's directory for changes and reloads on
// write or create events touching the file.
func (w *Watchlist) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.watcher = watcher

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := w.reload(); err != nil {
					log.Printf("⚠️ Failed to reload watch list: %v", err)
					continue
				}
				log.Printf("🔄 Watch list reloaded (%d comics)", len(w.Comics()))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️ Watch list watcher error: %v", err)
			}
		}
	}()

	return nil
}

// Close stops the file watcher.
func (w *Watchlist) Close() error {
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watchlist) reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	var parsed fileFormat
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse watch list: %w", err)
	}

	w.mu.Lock()
	w.comics = parsed.Comics
	w.mu.Unlock()
	return nil
}
