package sample

import "github.com/ZenLiuCN/hotreload/goobj"

//go:generate compile object -p sample -o sample.o sample.go

var Bar = 42

func Foo(x int) int {
	return x + 5
}

type proto struct {
	name string
}

func (p proto) Name() string {
	return p.name
}

func (p proto) Action() string {
	return "act " + p.name
}

func NewFactory(name string) goobj.Proto {
	return proto{name: name}
}
