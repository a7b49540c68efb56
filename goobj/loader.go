// Package goobj hot loads Go relocatable objects (.o and .a files made by the compile tool)
// behind the hotreload.Loader contract, using [goloader] as runtime linker.
//
// The Go SDK must be prepared for goloader first, see `compile prepare`.
//
// [goloader]: https://github.com/pkujhd/goloader
package goobj

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"unsafe"

	"github.com/pkujhd/goloader"
)

// Loader links objects of one package against the symbols of the host executable.
//
// Symbol names without a package qualifier are looked up in that package, so a table can
// declare "Foo" for "sample.Foo".
type Loader struct {
	pkg     string
	symbols map[string]uintptr
	modules map[uintptr]*goloader.CodeModule
	next    uintptr
	sync    bool
}

// NewLoader for objects of package pkg ("main" when empty). types are host types the objects
// use, pass pointers to interface values for interface types.
func NewLoader(pkg string, types ...any) (*Loader, error) {
	if pkg == "" {
		pkg = "main"
	}
	sym := make(map[string]uintptr)
	if err := goloader.RegSymbol(sym); err != nil {
		return nil, err
	}
	if len(types) > 0 {
		goloader.RegTypes(sym, types...)
	}
	return &Loader{
		pkg:     pkg,
		symbols: sym,
		modules: make(map[uintptr]*goloader.CodeModule),
	}, nil
}

// SyncStdout flushes stdout before unloading, loaded code may still have buffered output.
func (l *Loader) SyncStdout(sync bool) *Loader {
	l.sync = sync
	return l
}

func (l *Loader) Open(path string) (uintptr, error) {
	linker, err := goloader.ReadObj(path, l.pkg)
	if err != nil {
		return 0, err
	}
	code, err := goloader.Load(linker, l.symbols)
	if err != nil {
		return 0, err
	}
	l.next++
	l.modules[l.next] = code
	return l.next, nil
}

func (l *Loader) Resolve(handle uintptr, name string) uintptr {
	code, ok := l.modules[handle]
	if !ok {
		return 0
	}
	return code.Syms[l.qualify(name)]
}

func (l *Loader) Close(handle uintptr) error {
	code, ok := l.modules[handle]
	if !ok {
		return nil
	}
	if l.sync {
		_ = os.Stdout.Sync()
	}
	code.Unload()
	delete(l.modules, handle)
	return nil
}

// Bind points the Go func at fptr to the code at addr.
func (l *Loader) Bind(fptr any, addr uintptr) error {
	v := reflect.ValueOf(fptr)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("%T is not a pointer to a func", fptr)
	}
	// a func value points to a closure whose first word is the code address
	closure := new(uintptr)
	*closure = addr
	*(*unsafe.Pointer)(v.UnsafePointer()) = unsafe.Pointer(closure)
	return nil
}

// Missing lists the symbols the object at path needs but neither the host nor the loader provide.
func (l *Loader) Missing(path string) ([]string, error) {
	linker, err := goloader.ReadObj(path, l.pkg)
	if err != nil {
		return nil, err
	}
	return goloader.UnresolvedSymbols(linker, l.symbols), nil
}

func (l *Loader) qualify(name string) string {
	if strings.IndexByte(name, '.') < 0 {
		return l.pkg + "." + name
	}
	return name
}

// Inspect display symbols inside an object file
func Inspect(file, pkg string) ([]string, error) {
	return goloader.Parse(file, pkg)
}
