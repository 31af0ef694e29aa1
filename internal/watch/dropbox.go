// Package watch hands files dropped into a directory to a handler once
// writes to them have settled.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Dropbox watches a single directory. Each accepted path is handled once no
// create or write event has touched it for the settle window.
type Dropbox struct {
	dir    string
	settle time.Duration
	accept func(path string) bool
	handle Handler
	logger *zap.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	inflight sync.WaitGroup
}

// NewDropbox creates a dropbox for dir. A nil accept admits every file.
func NewDropbox(dir string, settle time.Duration, accept func(string) bool, handle Handler, logger *zap.Logger) *Dropbox {
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dropbox{
		dir:     dir,
		settle:  settle,
		accept:  accept,
		handle:  handle,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is cancelled or the watcher fails. It returns only
// after every handler already started has finished.
func (d *Dropbox) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(d.dir); err != nil {
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}
	defer d.drain()
	d.logger.Info("watching for uploads", zap.String("dir", d.dir), zap.Duration("settle", d.settle))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				if d.accept(path) {
					d.schedule(ctx, path)
				}
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				d.cancel(path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (d *Dropbox) schedule(ctx context.Context, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[path]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.settle, func() {
		d.mu.Lock()
		current := d.pending[path] == timer && ctx.Err() == nil
		if current {
			delete(d.pending, path)
			d.inflight.Add(1)
		}
		d.mu.Unlock()
		if !current {
			return
		}
		defer d.inflight.Done()
		d.logger.Debug("file settled", zap.String("path", path))
		d.handle(ctx, path)
	})
	d.pending[path] = timer
}

func (d *Dropbox) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[path]; ok {
		t.Stop()
		delete(d.pending, path)
	}
}

func (d *Dropbox) cancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
}

// drain stops pending timers and waits for running handlers.
func (d *Dropbox) drain() {
	d.cancelAll()
	d.inflight.Wait()
}

// Pending returns the number of files waiting to settle.
func (d *Dropbox) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
