package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watcher drives hot-reload notifications for the config directories
// (conf/, connectors/*.d/, topology/sinks/**) by watching them with
// fsnotify and invoking onChange with the modified file's path.
// Debouncing is deliberately left to the caller — the topology reload
// path already re-reads whole directories, so collapsing a burst of
// events into one reload is a policy decision, not this type's job.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path string)
}

// NewWatcher builds a Watcher over the given directories.
func NewWatcher(dirs []string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &Watcher{fsw: fsw, onChange: onChange}, nil
}

// Run blocks, dispatching onChange for every write/create/rename event
// until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.onChange(ev.Name)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
