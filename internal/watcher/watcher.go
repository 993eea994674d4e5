// Package watcher feeds incremental re-analysis: it watches the target
// tree for changes to matching source files and emits debounced batches of
// changed relative paths.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/SakuraCase/perchwork-sub001/internal/scan"
)

const debounceWindow = 250 * time.Millisecond

// Watcher watches a target root and batches change events.
type Watcher struct {
	root    string
	exts    map[string]struct{}
	matcher *scan.Matcher
	fsw     *fsnotify.Watcher
}

// New creates a watcher over root for the given extensions and exclude
// matcher.
func New(root string, exts []string, matcher *scan.Matcher) (*Watcher, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[e] = struct{}{}
	}
	return &Watcher{root: root, exts: extSet, matcher: matcher}, nil
}

// Start begins watching and returns a channel of debounced change batches.
// Each batch holds relative slash-separated paths, deduplicated.
func (w *Watcher) Start(ctx context.Context) (<-chan []string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw

	if err := w.addRecursive(w.root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan []string, 8)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher.
func (w *Watcher) Close() error {
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !info.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.root, path); err == nil && rel != "." {
			if w.matcher.Match(rel) || w.matcher.Match(rel+"/") {
				return filepath.SkipDir
			}
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- []string) {
	defer close(out)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = make(map[string]struct{})
		select {
		case out <- batch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-fire:
			fire = nil
			flush()

		case evt, ok := <-fsw.Events:
			if !ok {
				return
			}

			// New directories join the watch set.
			if evt.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(evt.Name)
					continue
				}
			}

			rel, err := filepath.Rel(w.root, evt.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if _, ok := w.exts[filepath.Ext(rel)]; !ok {
				continue
			}
			if w.matcher.Match(rel) {
				continue
			}

			pending[rel] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounceWindow)
			fire = timer.C

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
