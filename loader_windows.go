//go:build windows

package hotreload

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

type native struct{}

func (native) Open(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (native) Resolve(handle uintptr, name string) uintptr {
	p, err := windows.GetProcAddress(windows.Handle(handle), name)
	if err != nil {
		return 0
	}
	return p
}

func (native) Close(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return windows.FreeLibrary(windows.Handle(handle))
}

func (native) Bind(fptr any, addr uintptr) error {
	return bind(fptr, addr, purego.RegisterFunc)
}
