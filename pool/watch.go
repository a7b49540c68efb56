package pool

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig tunes Watch.
type WatchConfig struct {
	// Settle is the quiet period after the last change of a library before reloading it,
	// 200ms when zero. Builds usually touch a file several times.
	Settle time.Duration
	// MaxElapsed bounds the retries of a failing reload, 10s when zero.
	MaxElapsed time.Duration
	// OnReload, when set, is called after each reload attempt sequence with its final result.
	OnReload func(name string, err error)
}

func (c *WatchConfig) defaults() {
	if c.Settle <= 0 {
		c.Settle = 200 * time.Millisecond
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = 10 * time.Second
	}
}

// Watch reloads a pooled module each time its library file is rebuilt, until ctx is done.
//
// Only modules present when Watch starts are watched.
func (p *Pool) Watch(ctx context.Context, cfg WatchConfig) error {
	cfg.defaults()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			p.log.Warn("close watcher", zap.Error(err))
		}
	}()
	targets, err := p.targets()
	if err != nil {
		return err
	}
	dirs := make(map[string]struct{})
	for path := range targets {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err = w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		p.log.Debug("watching", zap.String("dir", dir))
	}

	settle := time.NewTimer(cfg.Settle)
	settle.Stop()
	defer settle.Stop()
	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := targets[filepath.Clean(ev.Name)]
			if !ok || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Chmod) {
				continue
			}
			p.log.Debug("library changed", zap.String("module", name), zap.Stringer("event", ev))
			pending[name] = struct{}{}
			settle.Reset(cfg.Settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watch", zap.Error(err))
		case <-settle.C:
			for name := range pending {
				delete(pending, name)
				err := p.retryReload(ctx, name, cfg)
				if cfg.OnReload != nil {
					cfg.OnReload(name, err)
				}
			}
		}
	}
}

func (p *Pool) targets() (map[string]string, error) {
	p.RLock()
	defer p.RUnlock()
	v := make(map[string]string, len(p.Modules))
	for name, m := range p.Modules {
		path, err := filepath.Abs(m.Path())
		if err != nil {
			return nil, err
		}
		v[path] = name
	}
	return v, nil
}

func (p *Pool) retryReload(ctx context.Context, name string, cfg WatchConfig) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.Settle
	b.MaxElapsedTime = cfg.MaxElapsed
	return backoff.Retry(func() error {
		err := p.Reload(name)
		if errors.Is(err, ErrNotLoad) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}
