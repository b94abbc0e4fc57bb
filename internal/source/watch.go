package source

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ffpopup/internal/system"
)

const (
	watchDebounce = 120 * time.Millisecond
	maxWatchDirs  = 512
)

// Dirs returns the root and its subdirectories, at most maxWatchDirs.
func (s *Source) Dirs() []string {
	dirs := []string{s.root}
	for _, e := range s.entries {
		if len(dirs) >= maxWatchDirs {
			break
		}
		if e.dir {
			dirs = append(dirs, filepath.Join(s.root, filepath.FromSlash(e.rel)))
		}
	}
	return dirs
}

// Watcher calls back after file system changes settle.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// Watch reports changes in dirs through changed, at most once per
// debounce interval. changed runs on the watcher goroutine.
func Watch(dirs []string, changed func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			system.Logger.Debug("watch", "dir", d, "err", err)
		}
	}
	wt := &Watcher{w: w, done: make(chan struct{})}
	go wt.loop(changed)
	return wt, nil
}

func (wt *Watcher) loop(changed func()) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-wt.done:
			return
		case ev, ok := <-wt.w.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-wt.w.Errors:
			if !ok {
				return
			}
			system.Logger.Debug("watch", "err", err)
		case <-timer.C:
			changed()
		}
	}
}

// Close stops the watcher. It is safe to call on a nil Watcher.
func (wt *Watcher) Close() error {
	if wt == nil {
		return nil
	}
	close(wt.done)
	return wt.w.Close()
}
