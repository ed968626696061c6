package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/ports"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Target is a single export file or a directory of exports.
	Target string

	// Extensions accepted in directory mode, e.g. ".csv". Empty accepts all.
	Extensions []string

	// Pattern is an optional glob matched against the file name in
	// directory mode, e.g. "GP_*_OD.csv".
	Pattern string

	// Debounce collapses bursts of writes to the same file into one event.
	// Zero delivers every event.
	Debounce time.Duration
}

// Watcher implements ports.EventSource with fsnotify. It watches a
// directory non-recursively; a file target is watched through its parent
// so that the export can be deleted and recreated.
type Watcher struct {
	dir        string
	file       string
	extensions map[string]struct{}
	pattern    glob.Glob
	debounce   time.Duration
	logger     ports.Logger

	fsw    *fsnotify.Watcher
	events chan ports.FileEvent
	errs   chan error
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewWatcher validates cfg and prepares a watcher. The target directory (or
// a file target's parent) must exist.
func NewWatcher(cfg WatcherConfig, logger ports.Logger) (*Watcher, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("%w: watch target is required", domain.ErrInvalidConfig)
	}
	target, err := filepath.Abs(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", domain.ErrInvalidConfig, cfg.Target, err)
	}

	w := &Watcher{
		extensions: make(map[string]struct{}, len(cfg.Extensions)),
		debounce:   cfg.Debounce,
		logger:     logger,
		events:     make(chan ports.FileEvent),
		errs:       make(chan error, 8),
		stop:       make(chan struct{}),
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		w.dir = target
	} else {
		w.file = target
		w.dir = filepath.Dir(target)
		info, err := os.Stat(w.dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: directory does not exist: %s", domain.ErrInvalidConfig, w.dir)
		}
	}

	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extensions[ext] = struct{}{}
	}

	if cfg.Pattern != "" {
		g, err := glob.Compile(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", domain.ErrInvalidConfig, cfg.Pattern, err)
		}
		w.pattern = g
	}

	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// File returns the watched file, or "" in directory mode.
func (w *Watcher) File() string { return w.file }

// Accepts reports whether path passes the watch filter.
func (w *Watcher) Accepts(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if w.file != "" {
		return abs == w.file
	}
	if filepath.Dir(abs) != w.dir {
		return false
	}
	name := filepath.Base(abs)
	if len(w.extensions) > 0 {
		if _, ok := w.extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			return false
		}
	}
	if w.pattern != nil && !w.pattern.Match(name) {
		return false
	}
	return true
}

// Existing lists the accepted files currently present, sorted by name.
func (w *Watcher) Existing() ([]string, error) {
	if w.file != "" {
		if info, err := os.Stat(w.file); err == nil && !info.IsDir() {
			return []string{w.file}, nil
		}
		return nil, nil
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", domain.ErrIO, w.dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(w.dir, e.Name())
		if w.Accepts(p) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Start sets up the fsnotify watch and begins delivering events.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	w.logger.Info("watching",
		ports.String("dir", w.dir),
		ports.String("file", w.file),
		ports.Duration("debounce", w.debounce),
	)

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Events returns the event channel.
func (w *Watcher) Events() <-chan ports.FileEvent { return w.events }

// Errors returns non-fatal watch errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watch and waits for the delivery goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	defer close(w.events)

	pending := newDebouncer(w.debounce)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	rearm := func() {
		timer.Stop()
		if next, ok := pending.next(); ok {
			timer.Reset(time.Until(next))
		}
	}

	flush := func() bool {
		for _, ev := range pending.due(time.Now()) {
			if info, err := os.Stat(ev.Path); err == nil && info.IsDir() {
				continue
			}
			if !w.send(ctx, ev) {
				return false
			}
		}
		rearm()
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.Accepts(event.Name) {
				w.logger.Debug("ignored file", ports.String("path", event.Name))
				continue
			}

			op := ports.FileModified
			if event.Op&fsnotify.Create != 0 {
				op = ports.FileCreated
			}

			if w.debounce <= 0 {
				if !w.send(ctx, ports.FileEvent{Path: event.Name, Op: op}) {
					return
				}
				continue
			}

			pending.add(event.Name, op, time.Now())
			rearm()

		case <-timer.C:
			if !flush() {
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				w.logger.Warn("watch error dropped", ports.Err(err))
			}
		}
	}
}

func (w *Watcher) send(ctx context.Context, ev ports.FileEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

// debouncer holds one quiet-period deadline per path, so a file that keeps
// changing never delays delivery of the others.
type debouncer struct {
	delay   time.Duration
	pending map[string]*pendingEvent
	order   []string
}

type pendingEvent struct {
	op       ports.FileOp
	deadline time.Time
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]*pendingEvent)}
}

// add records an event for path at now. The first op seen is kept.
func (d *debouncer) add(path string, op ports.FileOp, now time.Time) {
	if p, ok := d.pending[path]; ok {
		p.deadline = now.Add(d.delay)
		return
	}
	d.pending[path] = &pendingEvent{op: op, deadline: now.Add(d.delay)}
	d.order = append(d.order, path)
}

// due removes and returns the events whose deadline has passed, in
// first-seen order.
func (d *debouncer) due(now time.Time) []ports.FileEvent {
	var out []ports.FileEvent
	kept := d.order[:0]
	for _, path := range d.order {
		p := d.pending[path]
		if now.Before(p.deadline) {
			kept = append(kept, path)
			continue
		}
		out = append(out, ports.FileEvent{Path: path, Op: p.op})
		delete(d.pending, path)
	}
	d.order = kept
	return out
}

// next returns the earliest pending deadline.
func (d *debouncer) next() (time.Time, bool) {
	var earliest time.Time
	for _, p := range d.pending {
		if earliest.IsZero() || p.deadline.Before(earliest) {
			earliest = p.deadline
		}
	}
	return earliest, !earliest.IsZero()
}
