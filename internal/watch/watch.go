// Package watch reports changes to a single document file.
//
// The file's directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original
// are still seen. Bursts of events are coalesced into one Event after a
// quiet period.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 100 * time.Millisecond

// Op is a set of file operations.
type Op uint8

// Operations.
const (
	OpWrite Op = 1 << iota
	OpCreate
	OpRemove
	OpRename
)

// String returns the operations joined with "|".
func (o Op) String() string {
	var s string
	for _, p := range []struct {
		op   Op
		name string
	}{{OpWrite, "write"}, {OpCreate, "create"}, {OpRemove, "remove"}, {OpRename, "rename"}} {
		if o&p.op != 0 {
			if s != "" {
				s += "|"
			}
			s += p.name
		}
	}
	return s
}

// Event is a coalesced change to the watched file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher watches one file.
type Watcher struct {
	path   string
	delay  time.Duration
	logger *slog.Logger
	fsw    *fsnotify.Watcher

	mu      sync.Mutex
	pending Op
	timer   *time.Timer
	closed  bool

	events  chan Event
	errors  chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New starts watching path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    abs,
		delay:   DefaultDelay,
		logger:  slog.Default(),
		fsw:     fsw,
		events:  make(chan Event, 1),
		errors:  make(chan error, 8),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Events returns the coalesced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if op := convertOp(ev.Op); op != 0 {
				w.add(op)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watch error dropped", "path", w.path, "error", err)
			}
		}
	}
}

// add merges op into the pending event and restarts the quiet period.
func (w *Watcher) add(op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending |= op
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.fire)
		return
	}
	w.timer.Reset(w.delay)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.closed || w.pending == 0 {
		w.mu.Unlock()
		return
	}
	ev := Event{Path: w.path, Op: w.pending, Time: time.Now()}
	w.pending = 0
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.logger.Debug("file changed", "path", ev.Path, "op", ev.Op.String())
	select {
	case w.events <- ev:
	case <-w.closeCh:
	}
}

func convertOp(op fsnotify.Op) Op {
	var o Op
	if op.Has(fsnotify.Write) {
		o |= OpWrite
	}
	if op.Has(fsnotify.Create) {
		o |= OpCreate
	}
	if op.Has(fsnotify.Remove) {
		o |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		o |= OpRename
	}
	return o
}
