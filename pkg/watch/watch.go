// Package watch re-runs a job when any of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/chazu/kiln/pkg/logging"
)

// DefaultDelay is the quiet period used when none is given.
const DefaultDelay = 250 * time.Millisecond

// Job is one run triggered by a change. Its context is canceled when a newer
// change supersedes it or the watcher stops.
type Job func(ctx context.Context)

// Watcher triggers a Job after files stop changing.
type Watcher struct {
	files map[string]bool
	dirs  []string
	delay time.Duration
	job   Job

	mu      sync.Mutex // guards cancel
	cancel  context.CancelFunc
	jobMu   sync.Mutex // one job at a time
	running sync.WaitGroup
}

// New returns a Watcher for files. Directories containing the files are
// watched rather than the files themselves, so editors that save by
// renaming over the original are still seen.
func New(files []string, delay time.Duration, job Job) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	w := &Watcher{files: make(map[string]bool), delay: delay, job: job}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", f, err)
		}
		w.files[abs] = true
	}
	w.dirs = lo.Uniq(lo.Map(lo.Keys(w.files), func(f string, _ int) string {
		return filepath.Dir(f)
	}))
	return w, nil
}

// Run watches until ctx is done. The job runs once immediately and then
// after every burst of changes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: %s: %w", d, err)
		}
	}

	w.trigger(ctx)
	debounced := debounce.New(w.delay)
	defer w.running.Wait()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.cancel != nil {
				w.cancel()
			}
			w.mu.Unlock()
			return nil
		case e, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(e) {
				continue
			}
			logging.LogDebug("watch: %s %s", e.Op, e.Name)
			debounced(func() { w.trigger(ctx) })
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.LogWarn("watch: %v", err)
		}
	}
}

// relevant reports whether e touches a watched file's content.
func (w *Watcher) relevant(e fsnotify.Event) bool {
	if !e.Op.Has(fsnotify.Write) && !e.Op.Has(fsnotify.Create) && !e.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(e.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// trigger cancels any running job and starts a new one once it has
// returned.
func (w *Watcher) trigger(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	w.mu.Unlock()

	w.running.Add(1)
	go func() {
		defer w.running.Done()
		defer cancel()
		w.runExclusive(ctx)
	}()
}

func (w *Watcher) runExclusive(ctx context.Context) {
	w.jobMu.Lock()
	defer w.jobMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.job(ctx)
}
