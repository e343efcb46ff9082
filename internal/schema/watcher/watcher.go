// Package watcher reloads class-definition files into a registry when
// they change on disk.
//
// Directories are watched for .toml, .yaml and .yml entries; a single
// file is watched through its parent directory so that editors which
// replace files by rename are still seen. Bursts of events are coalesced
// into one reload after a quiet period.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/schema"
)

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrWatcherClosed is returned when operating on a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrNoPaths is returned when a watcher is created without paths.
	ErrNoPaths = errors.New("no definition paths")
)

// ReloadFunc is called after every reload attempt. res is nil when err
// is not.
type ReloadFunc func(res *schema.LoadResult, err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload. Non-positive
// values use DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithOnReload registers fn to run after every reload attempt. fn runs
// with the watcher locked and must not call back into it.
func WithOnReload(fn ReloadFunc) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Stats contains watcher statistics.
type Stats struct {
	Events    int64
	Reloads   int64
	Failures  int64
	LastError error
	LastLoad  time.Time
}

// Watcher reloads definition files into a registry.
type Watcher struct {
	mu sync.Mutex

	reg      *atom.Registry
	paths    []string
	dirs     map[string]bool
	files    map[string]bool
	debounce time.Duration
	logger   *zap.Logger
	onReload ReloadFunc

	fsw *fsnotify.Watcher

	events   atomic.Int64
	reloads  atomic.Int64
	failures atomic.Int64
	lastErr  error
	lastLoad time.Time

	started  bool
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher for paths. Nothing is loaded or watched until
// Start.
func New(reg *atom.Registry, paths []string, opts ...Option) (*Watcher, error) {
	if reg == nil {
		return nil, errors.New("watcher: nil registry")
	}
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	w := &Watcher{
		reg:      reg,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("definition path %s: %w", p, err)
		}
		w.paths = append(w.paths, abs)
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}
	}
	return w, nil
}

// Start loads every definition once and begins watching. It returns the
// initial load error, in which case nothing is watched.
func (w *Watcher) Start() (*schema.LoadResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}
	if w.started {
		return nil, ErrAlreadyStarted
	}

	res, err := w.load()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watched := make(map[string]bool)
	for _, p := range w.paths {
		dir := p
		if w.files[p] {
			dir = filepath.Dir(p)
		}
		if watched[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		watched[dir] = true
	}

	w.fsw = fsw
	w.started = true
	w.closedWg.Add(1)
	go w.processLoop()

	w.logger.Info("watching class definitions",
		zap.Strings("paths", w.paths),
		zap.Duration("debounce", w.debounce))
	return res, nil
}

// Reload loads every definition immediately.
func (w *Watcher) Reload() (*schema.LoadResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrWatcherClosed
	}
	return w.load()
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	fsw := w.fsw
	w.mu.Unlock()

	w.closedWg.Wait()

	if fsw != nil {
		return fsw.Close()
	}
	return nil
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Stats{
		Events:    w.events.Load(),
		Reloads:   w.reloads.Load(),
		Failures:  w.failures.Load(),
		LastError: w.lastErr,
		LastLoad:  w.lastLoad,
	}
}

// load must be called with mu held.
func (w *Watcher) load() (*schema.LoadResult, error) {
	res, err := schema.LoadInto(w.reg, w.paths...)
	if err != nil {
		w.failures.Add(1)
		w.lastErr = err
		w.logger.Warn("reloading class definitions failed", zap.Error(err))
	} else {
		w.reloads.Add(1)
		w.lastErr = nil
		w.lastLoad = time.Now()
		w.logger.Debug("reloaded class definitions",
			zap.Int("files", len(res.Files)),
			zap.Strings("added", res.Added),
			zap.Strings("replaced", res.Replaced))
	}
	if w.onReload != nil {
		if err != nil {
			w.onReload(nil, err)
		} else {
			w.onReload(res, nil)
		}
	}
	return res, err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.events.Add(1)
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			w.mu.Lock()
			if !w.closed {
				_, _ = w.load()
			}
			w.mu.Unlock()
		}
	}
}

// relevant reports whether ev touches a watched definition file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	_, err := schema.FormatOf(name)
	return err == nil
}
