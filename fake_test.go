package hotreload

import (
	"fmt"
	"os"
	"reflect"
	"unsafe"
)

// build is one compiled version of a fake library.
type build struct {
	vars  map[string]*int32
	funcs map[string]any
}

func fooBuild(bar int32, foo func(int32) int32) *build {
	return &build{
		vars:  map[string]*int32{"bar": &bar},
		funcs: map[string]any{"foo": foo},
	}
}

// fakeLoader serves builds from memory, keyed by path.
type fakeLoader struct {
	files    map[string]*build
	open     map[uintptr]*build
	code     map[uintptr]any
	next     uintptr
	opened   int
	closed   int
	binds    int
	closeErr error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		files: make(map[string]*build),
		open:  make(map[uintptr]*build),
		code:  make(map[uintptr]any),
	}
}

func (f *fakeLoader) Open(path string) (uintptr, error) {
	b, ok := f.files[path]
	if !ok {
		return 0, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	f.next++
	f.open[f.next] = b
	f.opened++
	return f.next, nil
}

func (f *fakeLoader) Resolve(handle uintptr, name string) uintptr {
	b, ok := f.open[handle]
	if !ok {
		return 0
	}
	if v, ok := b.vars[name]; ok {
		return uintptr(unsafe.Pointer(v))
	}
	if fn, ok := b.funcs[name]; ok {
		addr := 0x1000 + uintptr(len(f.code))*0x10
		f.code[addr] = fn
		return addr
	}
	return 0
}

func (f *fakeLoader) Close(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	delete(f.open, handle)
	f.closed++
	return f.closeErr
}

func (f *fakeLoader) Bind(fptr any, addr uintptr) error {
	fn, ok := f.code[addr]
	if !ok {
		return fmt.Errorf("no code at %#x", addr)
	}
	dst := reflect.ValueOf(fptr).Elem()
	src := reflect.ValueOf(fn)
	if !src.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("code at %#x is %s, not %s", addr, src.Type(), dst.Type())
	}
	dst.Set(src)
	f.binds++
	return nil
}
