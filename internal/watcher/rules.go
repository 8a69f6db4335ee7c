package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RuleWatcher calls reload when the rules file changes. The parent directory is watched so
// editors that replace the file by rename are handled.
type RuleWatcher struct {
	path   string
	reload func(path string) error
	opts   options

	mu    sync.Mutex
	fsw   *fsnotify.Watcher
	timer *time.Timer
	done  chan struct{}
	stop  sync.Once
}

// NewRuleWatcher returns a watcher for the rules file at path.
func NewRuleWatcher(path string, reload func(path string) error, opts ...Option) *RuleWatcher {
	return &RuleWatcher{
		path:   filepath.Clean(path),
		reload: reload,
		opts:   newOptions(opts),
		done:   make(chan struct{}),
	}
}

// Start begins watching until ctx is done or Stop is called.
func (r *RuleWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(r.path)); err != nil {
		_ = fsw.Close()
		return err
	}
	r.mu.Lock()
	r.fsw = fsw
	r.mu.Unlock()
	r.opts.logger.Debug("rule watcher started", zap.String("path", r.path))

	go func() {
		for {
			select {
			case <-ctx.Done():
				r.Stop()
				return
			case <-r.done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == r.path && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					r.schedule()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				r.opts.logger.Debug("rule watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (r *RuleWatcher) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.opts.debounce, func() {
		if err := r.reload(r.path); err != nil {
			r.opts.logger.Warn("rules reload failed, keeping current rules", zap.String("path", r.path), zap.Error(err))
			return
		}
		r.opts.logger.Info("rules reloaded", zap.String("path", r.path))
	})
}

// Stop stops watching. It is safe to call twice.
func (r *RuleWatcher) Stop() {
	r.stop.Do(func() {
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		if r.fsw != nil {
			_ = r.fsw.Close()
			r.fsw = nil
		}
		r.mu.Unlock()
		close(r.done)
	})
}
