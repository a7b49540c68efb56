/*
Package hotreload reloads native dynamic libraries inside a running process.

A concrete module declares the symbols it uses once, as a fixed array of [Symbol], and a
function giving the library path. The [Module] built over that table opens the library,
resolves every symbol by name and serves typed access by table position. A reload closes
the library and opens the rebuilt file into the same table, so every handle declared
against the table stays valid.

# License

Source codes are under Apache License Version 2.0.

# Underwater

 1. Native libraries are opened with [purego] (dlopen on unix, LoadLibrary on windows), no cgo
    is needed.
 2. Functions are called through purego's RegisterFunc with the Go signature the caller
    declares. Nothing verifies it against the library: document the C signature next to each
    symbol.
 3. Symbols absent from a library do not fail Load, they fail on first use with
    [ErrUnresolvedSymbol] and are listed by [Module.Missing].
 4. Go relocatable objects can be hot loaded the same way through the goobj package.

# Notes

 1. Module is not thread-safe. Every call into a library must be finished before Reload or
    Unload, the pool package provides that exclusion and a file watcher.
 2. Functions and pointers fetched from a module must not outlive the next Reload or Unload.
 3. Exported symbols need plain C linkage (extern "C" for C++ sources).

# Samples

	const (
		symFoo = iota // int foo(int)
		symBar        // int bar
	)

	var (
		exports = [...]hotreload.Symbol{
			symFoo: {Name: "foo"},
			symBar: {Name: "bar"},
		}
		foo = hotreload.NewFunc[func(int32) int32](&exports[symFoo])
		bar = hotreload.NewVar[int32](&exports[symBar])
	)

	func Module() *hotreload.Module {
		return hotreload.Instance("foo", func() *hotreload.Module {
			return hotreload.New("foo", exports[:], func() string {
				return hotreload.LocalLibraryName("foo")
			})
		})
	}

See the foo package for the complete module and its reload test.

[purego]: https://github.com/ebitengine/purego
*/
package hotreload
