// Package foo is a hot reloadable module over the foo library:
//
//	int foo(int);
//	int bar;
package foo

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ZenLiuCN/hotreload"
)

const (
	symFoo = iota // int foo(int)
	symBar        // int bar
)

// Name of the module and base name of its library.
const Name = "foo"

var (
	exports = [...]hotreload.Symbol{
		symFoo: {Name: "foo"},
		symBar: {Name: "bar"},
	}
	foo = hotreload.NewFunc[func(int32) int32](&exports[symFoo])
	bar = hotreload.NewVar[int32](&exports[symBar])
)

// Dir holds the library, it is read at every Load.
var Dir = "."

// Path of the library for the running OS.
func Path() string {
	return filepath.Join(Dir, LibraryName(runtime.GOOS))
}

// LibraryName is the library file name on goos.
func LibraryName(goos string) string {
	return hotreload.LibraryName(Name, goos)
}

// Module is the process-wide foo module.
func Module() *hotreload.Module {
	return hotreload.Instance(Name, func() *hotreload.Module {
		return hotreload.New(Name, exports[:], Path)
	})
}

func Load() error   { return Module().Load() }
func Reload() error { return Module().Reload() }
func Unload()       { Module().Unload() }

// Foo calls foo(x).
func Foo(x int32) (int32, error) {
	f, err := foo.Get(Module())
	if err != nil {
		return 0, err
	}
	return f(x), nil
}

// Bar reads bar.
func Bar() (int32, error) {
	return bar.Value(Module())
}

// Source renders a foo library exporting bar = value and foo(x) = x op delta.
func Source(value int32, op byte, delta int32) string {
	return fmt.Sprintf(source, value, op, delta)
}

const source = `#if defined(_WIN32)
#define EXPORT __declspec(dllexport)
#else
#define EXPORT __attribute__((visibility("default")))
#endif

EXPORT int bar = %d;

EXPORT int foo(int x) { return x %c %d; }
`
