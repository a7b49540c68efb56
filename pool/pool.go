// Package pool serializes access to hot reloadable modules: calls share a read lock, reloads
// take the write lock, so no call ever runs against a library being swapped.
package pool

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ZenLiuCN/fn"
	"github.com/ZenLiuCN/hotreload"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Pool struct {
	Modules map[string]*hotreload.Module
	sync.RWMutex
	metrics *metrics
	log     *zap.Logger
}

// Option configures a Pool.
type Option func(*options)

type options struct {
	reg prometheus.Registerer
	log *zap.Logger
}

// WithRegisterer registers the pool metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.reg = reg
	}
}

// WithLogger sets the pool logger, hotreload.Logger by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

var (
	ErrAlreadyLoad = errors.New("module already in pool")
	ErrNotLoad     = errors.New("module not in pool")
)

// NewPool create new pool
func NewPool(opts ...Option) *Pool {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = hotreload.Logger().Named("pool")
	}
	return &Pool{
		Modules: make(map[string]*hotreload.Module),
		metrics: newMetrics(o.reg),
		log:     o.log,
	}
}

// Add m to the pool, without loading it.
func (p *Pool) Add(m *hotreload.Module) error {
	p.Lock()
	defer p.Unlock()
	if _, ok := p.Modules[m.Name()]; ok {
		return ErrAlreadyLoad
	}
	p.Modules[m.Name()] = m
	p.metrics.loaded.WithLabelValues(m.Name()).Set(boolGauge(m.Loaded()))
	return nil
}

// Names of pooled modules, sorted.
func (p *Pool) Names() []string {
	p.RLock()
	defer p.RUnlock()
	v := fn.MapKeys(p.Modules)
	sort.Strings(v)
	return v
}

// Load the named module.
func (p *Pool) Load(name string) error {
	p.Lock()
	defer p.Unlock()
	m, ok := p.Modules[name]
	if !ok {
		return ErrNotLoad
	}
	err := m.Load()
	p.metrics.loaded.WithLabelValues(name).Set(boolGauge(m.Loaded()))
	return err
}

// LoadAll loads every module, continuing past failures.
func (p *Pool) LoadAll() error {
	p.Lock()
	defer p.Unlock()
	var result *multierror.Error
	for name, m := range p.Modules {
		if err := m.Load(); err != nil {
			result = multierror.Append(result, err)
		}
		p.metrics.loaded.WithLabelValues(name).Set(boolGauge(m.Loaded()))
	}
	return result.ErrorOrNil()
}

// Use runs f with the named module, no reload happens until f returns.
//
// f must not keep functions or pointers fetched from the module after it returns.
func (p *Pool) Use(name string, f func(m *hotreload.Module) error) error {
	p.RLock()
	defer p.RUnlock()
	m, ok := p.Modules[name]
	if !ok {
		return ErrNotLoad
	}
	return f(m)
}

// Reload the named module once every running Use has returned.
func (p *Pool) Reload(name string) error {
	p.Lock()
	defer p.Unlock()
	m, ok := p.Modules[name]
	if !ok {
		return ErrNotLoad
	}
	return p.reload(m)
}

func (p *Pool) reload(m *hotreload.Module) (err error) {
	start := time.Now()
	err = m.Reload()
	p.metrics.duration.WithLabelValues(m.Name()).Observe(time.Since(start).Seconds())
	p.metrics.loaded.WithLabelValues(m.Name()).Set(boolGauge(m.Loaded()))
	if err != nil {
		p.metrics.reloads.WithLabelValues(m.Name(), resultFailure).Inc()
		p.log.Warn("reload failed", zap.String("module", m.Name()), zap.Error(err))
		return
	}
	p.metrics.reloads.WithLabelValues(m.Name(), resultSuccess).Inc()
	p.log.Info("reloaded", zap.String("module", m.Name()), zap.String("path", m.Path()),
		zap.Strings("missing", m.Missing()))
	return
}

// Remove unloads the named module and drops it from the pool.
func (p *Pool) Remove(name string) error {
	p.Lock()
	defer p.Unlock()
	m, ok := p.Modules[name]
	if !ok {
		return ErrNotLoad
	}
	m.Unload()
	delete(p.Modules, name)
	p.metrics.loaded.DeleteLabelValues(name)
	return nil
}

// Close unloads every module, the pool stays usable.
func (p *Pool) Close() error {
	p.Lock()
	defer p.Unlock()
	for name, m := range p.Modules {
		m.Unload()
		p.metrics.loaded.WithLabelValues(name).Set(0)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
