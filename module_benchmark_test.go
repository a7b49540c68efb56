package hotreload

import (
	"testing"
)

func benchModule(b *testing.B) (*Module, *[2]Symbol) {
	l := newFakeLoader()
	l.files[libPath] = fooBuild(42, plus5)
	exports := declare()
	m := New("foo", exports[:], func() string { return libPath }, WithLoader(l))
	if err := m.Load(); err != nil {
		b.Fatal(err)
	}
	return m, exports
}

func BenchmarkReload(b *testing.B) {
	m, _ := benchModule(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.Reload(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExecuteOnly(b *testing.B) {
	m, exports := benchModule(b)
	foo := NewFunc[typeFoo](&exports[symFoo])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		foo.Must(m)(4)
	}
}

func BenchmarkExecuteRaw(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		plus5(4)
	}
}
