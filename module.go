package hotreload

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// State of a Module.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type (
	// Module manages the lifetime of one dynamic library and serves typed access to the
	// symbols of its Table.
	//
	// Use Steps:
	//
	//	1. Declare the Table as a fixed array and create the Module once, see Instance.
	//	2. [Module.Load] the library.
	//	3. Access symbols through Execute, GetVar or the Func and Var accessors.
	//	4. [Module.Reload] after the library was rebuilt, [Module.Unload] when done.
	//
	// Note:
	//
	//	1. Module does no locking. Callers must quiesce every call into the library before
	//	   Reload or Unload, see the pool package for a helper that does so.
	//	2. A function or variable obtained before a reload must not be used after it.
	Module struct {
		name    string
		path    func() string
		table   Table
		loader  Loader
		log     *zap.Logger
		version *versionCheck
		handle  uintptr
		current string
		gen     uint64
		bound   map[int]binding
	}
	// Option configures a Module.
	Option func(*Module)

	binding struct {
		gen uint64
		fn  any
	}
	versionCheck struct {
		symbol string
		want   int32
	}
)

// WithLoader replaces the native loader.
func WithLoader(l Loader) Option {
	return func(m *Module) {
		m.loader = l
	}
}

// WithLogger replaces the logger derived from Logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) {
		m.log = l
	}
}

// WithVersion requires the library to export an int32 variable named symbol holding want.
// A library without it, or with another value, fails to load.
func WithVersion(symbol string, want int32) Option {
	return func(m *Module) {
		m.version = &versionCheck{symbol: symbol, want: want}
	}
}

// New creates an unloaded Module over table, loading the file path returns at each Load.
//
// New panics when table is empty or has missing or duplicate names: those are declaration
// defects of the concrete module.
func New(name string, table Table, path func() string, opts ...Option) *Module {
	if err := table.validate(); err != nil {
		panic(fmt.Errorf("hotreload: module %s: %w", name, err))
	}
	if path == nil {
		panic(fmt.Errorf("hotreload: module %s: nil path", name))
	}
	m := &Module{
		name:  name,
		path:  path,
		table: table,
		bound: make(map[int]binding, len(table)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.loader == nil {
		m.loader = Native()
	}
	if m.log == nil {
		m.log = Logger().Named(name)
	}
	return m
}

// Name of the module.
func (m *Module) Name() string {
	return m.name
}

// Path the next Load will open.
func (m *Module) Path() string {
	return m.path()
}

// Table shared with the declaring package.
func (m *Module) Table() Table {
	return m.table
}

// State of the module.
func (m *Module) State() State {
	if m.handle == 0 {
		return Unloaded
	}
	return Loaded
}

// Loaded reports State() == Loaded.
func (m *Module) Loaded() bool {
	return m.handle != 0
}

// Generation counts completed loads, symbols bound in an older generation are stale.
func (m *Module) Generation() uint64 {
	return m.gen
}

// Load opens the library and resolves every symbol by name.
//
// Symbols absent from the library stay unresolved and fail on first access, see Missing.
// When the library can't be opened the module stays unloaded and no address is touched.
func (m *Module) Load() error {
	if m.handle != 0 {
		return nil
	}
	p := m.path()
	h, err := m.loader.Open(p)
	if err != nil {
		m.log.Debug("open library failed", zap.String("path", p), zap.Error(err))
		return &Error{Op: "load", Module: m.name, Path: p, Kind: ErrLibraryOpen, Err: err}
	}
	if h == 0 {
		return &Error{Op: "load", Module: m.name, Path: p, Kind: ErrLibraryOpen}
	}
	if m.version != nil {
		if err = m.checkVersion(h); err != nil {
			if cerr := m.loader.Close(h); cerr != nil {
				m.log.Warn("close rejected library", zap.String("path", p), zap.Error(cerr))
			}
			return &Error{Op: "load", Module: m.name, Path: p, Symbol: m.version.symbol, Kind: ErrVersionMismatch, Err: err}
		}
	}
	m.handle = h
	m.current = p
	m.gen++
	var missing []string
	for i := range m.table {
		s := &m.table[i]
		s.addr = m.loader.Resolve(h, s.Name)
		if s.addr == 0 {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) > 0 {
		m.log.Warn("unresolved symbols", zap.String("path", p), zap.Strings("symbols", missing))
	}
	m.log.Debug("library loaded", zap.String("path", p), zap.Uint64("generation", m.gen))
	return nil
}

func (m *Module) checkVersion(h uintptr) error {
	a := m.loader.Resolve(h, m.version.symbol)
	if a == 0 {
		return ErrSymbolResolution
	}
	if got := *(*int32)(ptr(a)); got != m.version.want {
		return fmt.Errorf("want %d, got %d", m.version.want, got)
	}
	return nil
}

// Unload closes the library and nulls every address. Unloading an unloaded module does nothing.
//
// A failure of the platform close is logged, the module is unloaded regardless.
func (m *Module) Unload() {
	if err := m.unload(); err != nil {
		m.log.Warn("close library", zap.Error(err))
	}
}

func (m *Module) unload() (err error) {
	if m.handle == 0 {
		return nil
	}
	if cerr := m.loader.Close(m.handle); cerr != nil {
		err = &Error{Op: "unload", Module: m.name, Path: m.current, Err: cerr}
	}
	m.handle = 0
	m.table.reset()
	clear(m.bound)
	m.log.Debug("library unloaded", zap.String("path", m.current))
	m.current = ""
	return
}

// Reload unloads then loads the library into the same table.
//
// On failure the module is left unloaded.
func (m *Module) Reload() error {
	m.Unload()
	if err := m.Load(); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Op = "reload"
		}
		return err
	}
	return nil
}

// Missing lists the declared names unresolved in the loaded library, nil when unloaded.
func (m *Module) Missing() (v []string) {
	if m.handle == 0 {
		return
	}
	for i := range m.table {
		if m.table[i].addr == 0 {
			v = append(v, m.table[i].Name)
		}
	}
	return
}

// lookup validates that s belongs to the table and returns its index and address.
func (m *Module) lookup(op string, s *Symbol) (int, uintptr, error) {
	i := m.table.index(s)
	if i < 0 {
		panic(fmt.Errorf("hotreload: symbol %v is not declared in module %s", s, m.name))
	}
	if s.addr == 0 {
		e := &Error{Op: op, Module: m.name, Symbol: s.Name, Kind: ErrUnresolvedSymbol}
		if m.handle != 0 {
			e.Path = m.current
			e.Err = ErrSymbolResolution
		}
		return i, 0, e
	}
	return i, s.addr, nil
}
