package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpress/internal/logfields"
	"git.home.luguber.info/inful/docpress/internal/storage"
)

// BuildFunc runs one full pipeline pass.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	SourceRoot string
	DestRoot   string        // events below it are ignored when it lives inside SourceRoot
	Debounce   time.Duration // quiet period before a change triggers a rebuild
	Interval   time.Duration // periodic full rebuild, 0 disables
}

// Watcher rebuilds on source changes and optionally on a fixed schedule.
type Watcher struct {
	opts         Options
	build        BuildFunc
	newScheduler func() (gocron.Scheduler, error)
}

// New creates a Watcher.
func New(opts Options, build BuildFunc) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	return &Watcher{opts: opts, build: build, newScheduler: func() (gocron.Scheduler, error) {
		return gocron.NewScheduler()
	}}
}

// Run performs an initial build and then rebuilds until ctx is canceled.
// Build failures are logged and do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	absSource, err := filepath.Abs(w.opts.SourceRoot)
	if err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}
	absDest := ""
	if w.opts.DestRoot != "" {
		if absDest, err = filepath.Abs(w.opts.DestRoot); err != nil {
			return fmt.Errorf("resolve destination dir: %w", err)
		}
	}

	w.runBuild(ctx, "initial")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	addDirsRecursive(watcher, absSource, absDest)

	rebuildReq, trigger := newDebouncer(w.opts.Debounce)
	if w.opts.Interval > 0 {
		stop, err := w.schedule(trigger)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				w.runBuild(ctx, "change")
			}
		}
	}()

	slog.Info("Watching for changes", logfields.Path(absSource))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(ev.Name, absDest) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirsRecursive(watcher, ev.Name, absDest)
				}
			}
			slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// schedule starts the periodic rebuild job and returns its shutdown func.
func (w *Watcher) schedule(trigger func()) (func(), error) {
	scheduler, err := w.newScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(trigger),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	scheduler.Start()
	return func() { _ = scheduler.Shutdown() }, nil
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.build(ctx); err != nil {
		slog.Warn("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
		return
	}
	slog.Info("Rebuild complete", slog.String("reason", reason),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// newDebouncer returns a channel that receives once per burst of trigger
// calls, after delay has passed without another call.
func newDebouncer(delay time.Duration) (<-chan struct{}, func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	req := make(chan struct{}, 1)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	return req, trigger
}

func addDirsRecursive(w *fsnotify.Watcher, root, skip string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (isWithin(path, skip) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent skips hidden and editor temp files, fragment
// directories and anything written below the destination root.
func shouldIgnoreEvent(path, destRoot string) bool {
	if isWithin(path, destRoot) {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == storage.TempDirName {
			return true
		}
	}
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}

func isWithin(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
