//go:build !(darwin || freebsd || linux || windows)

package hotreload

type native struct{}

func (native) Open(string) (uintptr, error)   { return 0, ErrUnsupportedPlatform }
func (native) Resolve(uintptr, string) uintptr { return 0 }
func (native) Close(uintptr) error             { return nil }
func (native) Bind(any, uintptr) error         { return ErrUnsupportedPlatform }
