package hotreload

import (
	"unsafe"
)

// Execute returns the function symbol s bound as F, for example func(int32) int32.
//
// F must match the real exported signature, nothing checks it: a mismatch is undefined
// behavior at the call. The returned function is valid until the next Unload or Reload.
// Execute fails with ErrUnresolvedSymbol while the module is unloaded or s is missing from
// the loaded library.
//
// Execute panics when s is not an element of the module's table.
func Execute[F any](m *Module, s *Symbol) (F, error) {
	var fn F
	i, addr, err := m.lookup("execute", s)
	if err != nil {
		return fn, err
	}
	if b, ok := m.bound[i]; ok && b.gen == m.gen {
		if f, ok := b.fn.(F); ok {
			return f, nil
		}
	}
	if err = m.loader.Bind(&fn, addr); err != nil {
		return fn, &Error{Op: "execute", Module: m.name, Path: m.current, Symbol: s.Name, Kind: ErrBind, Err: err}
	}
	m.bound[i] = binding{gen: m.gen, fn: fn}
	return fn, nil
}

// GetVar returns the variable symbol s as a pointer into the library's storage.
//
// T must match the real exported type. The pointer dangles after the next Unload or Reload.
func GetVar[T any](m *Module, s *Symbol) (*T, error) {
	_, addr, err := m.lookup("var", s)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr(addr)), nil
}

type (
	// Func is a typed handle to a function symbol, declared once next to the table.
	Func[F any] struct {
		sym *Symbol
	}
	// Var is a typed handle to a variable symbol, declared once next to the table.
	Var[T any] struct {
		sym *Symbol
	}
)

func NewFunc[F any](s *Symbol) Func[F] {
	return Func[F]{sym: s}
}

func (f Func[F]) Symbol() *Symbol {
	return f.sym
}

// Get is Execute[F](m, symbol).
func (f Func[F]) Get(m *Module) (F, error) {
	return Execute[F](m, f.sym)
}

// Must is Get which panics on error.
func (f Func[F]) Must(m *Module) F {
	fn, err := Execute[F](m, f.sym)
	if err != nil {
		panic(err)
	}
	return fn
}

func NewVar[T any](s *Symbol) Var[T] {
	return Var[T]{sym: s}
}

func (v Var[T]) Symbol() *Symbol {
	return v.sym
}

// Get is GetVar[T](m, symbol).
func (v Var[T]) Get(m *Module) (*T, error) {
	return GetVar[T](m, v.sym)
}

// Value dereferences the variable at the time of the call.
func (v Var[T]) Value(m *Module) (x T, err error) {
	var p *T
	if p, err = GetVar[T](m, v.sym); err != nil {
		return
	}
	x = *p
	return
}

// Must is Get which panics on error.
func (v Var[T]) Must(m *Module) *T {
	p, err := GetVar[T](m, v.sym)
	if err != nil {
		panic(err)
	}
	return p
}

//go:nocheckptr
func ptr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
