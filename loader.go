package hotreload

import (
	"fmt"
	"runtime"
)

// Loader is the platform primitive set a Module drives.
type Loader interface {
	// Open maps the library at path and returns its handle.
	Open(path string) (handle uintptr, err error)
	// Resolve returns the address of name inside the library, 0 when absent.
	Resolve(handle uintptr, name string) uintptr
	// Close releases the handle, closing 0 is a no-op.
	Close(handle uintptr) error
	// Bind makes the function pointed by fptr call the code at addr.
	//
	// The function type is trusted, nothing verifies it against the real export.
	Bind(fptr any, addr uintptr) error
}

// Native returns the loader for shared libraries of the running OS.
func Native() Loader {
	return native{}
}

// LibraryName is the conventional shared library file name of base on goos.
func LibraryName(base, goos string) string {
	switch goos {
	case "windows":
		return base + ".dll"
	case "darwin", "ios":
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// LocalLibraryName is LibraryName for the running OS.
func LocalLibraryName(base string) string {
	return LibraryName(base, runtime.GOOS)
}

// bind recovers panics of loaders whose registration panics on unsupported types.
func bind(fptr any, addr uintptr, f func(any, uintptr)) (err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case error:
			err = r
		default:
			err = fmt.Errorf("%v", r)
		}
	}()
	f(fptr, addr)
	return
}
