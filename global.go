package hotreload

import (
	"sort"
	"sync"

	"github.com/ZenLiuCN/fn"
	"github.com/hashicorp/go-multierror"
)

// Registry holds one Module per name.
//
// It replaces per-type singletons: construction is explicit (Register) or once per name
// (Instance), both synchronized, and Close tears every module down.
type Registry struct {
	mu      sync.Mutex
	modules map[string]*Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds m under its name, fails with ErrAlreadyExists if the name is taken.
func (r *Registry) Register(m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[m.name]; ok {
		return &Error{Op: "register", Module: m.name, Kind: ErrAlreadyExists}
	}
	r.modules[m.name] = m
	return nil
}

// Instance returns the module registered as name, building and registering it on first use.
func (r *Registry) Instance(name string, build func() *Module) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m
	}
	m := build()
	r.modules[name] = m
	return m
}

// Get the module registered as name.
func (r *Registry) Get(name string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m, nil
	}
	return nil, &Error{Op: "get", Module: name, Kind: ErrNotFound}
}

// Names of registered modules, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := fn.MapKeys(r.modules)
	sort.Strings(v)
	return v
}

// Remove unloads and forgets the module registered as name. Unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	m, ok := r.modules[name]
	delete(r.modules, name)
	r.mu.Unlock()
	if ok {
		m.Unload()
	}
}

// Close unloads every module and empties the registry. Later Instance calls build anew.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result *multierror.Error
	for name, m := range r.modules {
		if err := m.unload(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(r.modules, name)
	}
	return result.ErrorOrNil()
}

var global = NewRegistry()

// Instance is Registry.Instance on the process-wide registry.
//
// A concrete module exposes its singleton through it:
//
//	func Module() *hotreload.Module {
//		return hotreload.Instance("foo", func() *hotreload.Module {
//			return hotreload.New("foo", exports[:], Path)
//		})
//	}
func Instance(name string, build func() *Module) *Module {
	return global.Instance(name, build)
}

// Register is Registry.Register on the process-wide registry.
func Register(m *Module) error {
	return global.Register(m)
}

// Get is Registry.Get on the process-wide registry.
func Get(name string) (*Module, error) {
	return global.Get(name)
}

// Modules lists names in the process-wide registry.
func Modules() []string {
	return global.Names()
}

// Remove is Registry.Remove on the process-wide registry.
func Remove(name string) {
	global.Remove(name)
}

// CloseAll unloads and forgets every module of the process-wide registry.
// Callers must have stopped using every symbol first.
func CloseAll() error {
	return global.Close()
}
