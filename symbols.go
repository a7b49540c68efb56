package hotreload

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

type (
	// Symbol is one name/address binding inside a Table.
	//
	// Declare symbols as elements of a fixed-size array and address them with constant
	// indices, so the compiler rejects an out of range index:
	//
	//	const (
	//		symFoo = iota // int foo(int)
	//		symBar        // int bar
	//	)
	//	var exports = [...]hotreload.Symbol{
	//		symFoo: {Name: "foo"},
	//		symBar: {Name: "bar"},
	//	}
	Symbol struct {
		Name string
		addr uintptr
	}
	// Table is the fixed sequence of symbols a concrete module declares, normally a slice of
	// the declared array (exports[:]). The Module only writes addresses, never the shape.
	Table []Symbol
)

// Addr is the resolved address, 0 while unresolved.
func (s *Symbol) Addr() uintptr {
	return s.addr
}

// Resolved reports whether the symbol currently points into a loaded library.
func (s *Symbol) Resolved() bool {
	return s.addr != 0
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s@%#x", s.Name, s.addr)
}

// Len of the table, fixed at declaration.
func (t Table) Len() int {
	return len(t)
}

// Name of the symbol at index i.
func (t Table) Name(i int) string {
	return t[i].Name
}

// Names in declaration order.
func (t Table) Names() []string {
	v := make([]string, len(t))
	for i := range t {
		v[i] = t[i].Name
	}
	return v
}

// index locates s inside t by address, -1 when s lives elsewhere.
func (t Table) index(s *Symbol) int {
	if len(t) == 0 || s == nil {
		return -1
	}
	base := uintptr(unsafe.Pointer(&t[0]))
	p := uintptr(unsafe.Pointer(s))
	size := unsafe.Sizeof(Symbol{})
	if p < base || p >= base+size*uintptr(len(t)) || (p-base)%size != 0 {
		return -1
	}
	return int((p - base) / size)
}

func (t Table) validate() error {
	if len(t) == 0 {
		return errors.New("empty symbol table")
	}
	seen := make(map[string]int, len(t))
	for i := range t {
		n := t[i].Name
		if n == "" {
			return fmt.Errorf("symbol %d has no name", i)
		}
		if j, ok := seen[n]; ok {
			return fmt.Errorf("symbol %q declared at %d and %d", n, j, i)
		}
		seen[n] = i
	}
	return nil
}

func (t Table) reset() {
	for i := range t {
		t[i].addr = 0
	}
}

var (
	// ErrLibraryOpen occurs when the platform loader can't open or map a library.
	ErrLibraryOpen = errors.New("library open failed")
	// ErrSymbolResolution occurs when a declared name is absent from the loaded library.
	ErrSymbolResolution = errors.New("symbol not found in library")
	// ErrUnresolvedSymbol occurs when a symbol is used while its address is null.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")
	// ErrVersionMismatch occurs when the library's version symbol differs from the expected one.
	ErrVersionMismatch = errors.New("library version mismatch")
	// ErrBind occurs when a symbol can't be bound as the requested function type.
	ErrBind = errors.New("bind symbol failed")
	// ErrUnsupportedPlatform occurs when no native loader exists for the running OS.
	ErrUnsupportedPlatform = errors.New("dynamic libraries not supported on this platform")
	// ErrAlreadyExists occurs when registering a module name twice.
	ErrAlreadyExists = errors.New("module already registered")
	// ErrNotFound occurs when looking up an unknown module name.
	ErrNotFound = errors.New("module not registered")
)

// Error carries the context of a failed module operation.
//
// errors.Is matches both Kind (one of the sentinels above) and the underlying Err.
type Error struct {
	Op     string // load, reload, execute, var
	Module string
	Path   string
	Symbol string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Module)
	b.WriteByte(' ')
	b.WriteString(e.Op)
	if e.Symbol != "" {
		b.WriteString(" ")
		b.WriteString(e.Symbol)
	}
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteByte(')')
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil && e.Err != e.Kind {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	v := make([]error, 0, 2)
	if e.Kind != nil {
		v = append(v, e.Kind)
	}
	if e.Err != nil {
		v = append(v, e.Err)
	}
	return v
}
