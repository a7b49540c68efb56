//go:build darwin || freebsd || linux

package hotreload

import (
	"github.com/ebitengine/purego"
)

type native struct{}

func (native) Open(path string) (uintptr, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return h, nil
}

func (native) Resolve(handle uintptr, name string) uintptr {
	p, err := purego.Dlsym(handle, name)
	if err != nil {
		return 0
	}
	return p
}

func (native) Close(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}

func (native) Bind(fptr any, addr uintptr) error {
	return bind(fptr, addr, purego.RegisterFunc)
}
