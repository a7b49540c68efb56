package foo

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ZenLiuCN/hotreload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture rebuilds the foo library in a temporary directory, as a developer would while
// the process keeps running.
type fixture struct {
	t   *testing.T
	cc  string
	src string
}

func setUp(t *testing.T) *fixture {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if _, err := exec.LookPath(cc); err != nil {
		t.Skipf("no c compiler: %v", err)
	}
	dir := useDir(t)
	return &fixture{t: t, cc: cc, src: filepath.Join(dir, "foo.c")}
}

func useDir(t *testing.T) string {
	dir := t.TempDir()
	prev := Dir
	Dir = dir
	t.Cleanup(func() {
		Unload()
		hotreload.Remove(Name)
		Dir = prev
	})
	return dir
}

func (f *fixture) build(value int32, op byte, delta int32) {
	require.NoError(f.t, os.WriteFile(f.src, []byte(Source(value, op, delta)), 0o644))
	require.NoError(f.t, hotreload.Compile(f.cc, Path(), []string{f.src}))
}

func TestReload(t *testing.T) {
	f := setUp(t)
	f.build(42, '+', 5)
	require.NoError(t, Reload())

	v, err := Bar()
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
	r, err := Foo(4)
	require.NoError(t, err)
	assert.EqualValues(t, 9, r)

	f.build(-2, '-', 5)
	require.NoError(t, Reload())

	v, err = Bar()
	require.NoError(t, err)
	assert.EqualValues(t, -2, v)
	r, err = Foo(4)
	require.NoError(t, err)
	assert.EqualValues(t, -1, r)
	assert.Equal(t, 2, Module().Table().Len())
	assert.Empty(t, Module().Missing())
}

func TestUnloadTwice(t *testing.T) {
	f := setUp(t)
	f.build(42, '+', 5)
	require.NoError(t, Load())

	Unload()
	Unload()
	assert.Equal(t, hotreload.Unloaded, Module().State())
	for i := range exports {
		assert.False(t, exports[i].Resolved(), exports[i].Name)
	}
	_, err := Foo(1)
	require.ErrorIs(t, err, hotreload.ErrUnresolvedSymbol)
}

func TestMissingLibrary(t *testing.T) {
	useDir(t)

	err := Load()
	require.ErrorIs(t, err, hotreload.ErrLibraryOpen)
	assert.Equal(t, hotreload.Unloaded, Module().State())

	_, err = Foo(4)
	require.ErrorIs(t, err, hotreload.ErrUnresolvedSymbol)
	_, err = Bar()
	require.ErrorIs(t, err, hotreload.ErrUnresolvedSymbol)
}

func TestLibraryName(t *testing.T) {
	assert.Equal(t, "libfoo.so", LibraryName("linux"))
	assert.Equal(t, "libfoo.dylib", LibraryName("darwin"))
	assert.Equal(t, "foo.dll", LibraryName("windows"))
}

// Symbols are addressed as &exports[constant], so the compiler rejects an index past the
// table before any module exists.
func TestSymbolIndexCheckedByCompiler(t *testing.T) {
	check := func(index string) error {
		src := `package p

type Symbol struct{ Name string }

const (
	symFoo = iota
	symBar
	symBaz
)

var exports = [...]Symbol{
	symFoo: {Name: "foo"},
	symBar: {Name: "bar"},
}

var sym = &exports[` + index + `]
`
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, "p.go", src, 0)
		require.NoError(t, err)
		conf := types.Config{Importer: importer.Default()}
		_, err = conf.Check("p", fset, []*ast.File{f}, nil)
		return err
	}
	require.NoError(t, check("symBar"))
	err := check("symBaz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}
