package hotreload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInstanceBuildsOnce(t *testing.T) {
	r := NewRegistry()
	l := newFakeLoader()
	builds := 0
	build := func() *Module {
		builds++
		m, _ := newFoo(t, l)
		return m
	}
	a := r.Instance("foo", build)
	b := r.Instance("foo", build)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)
	assert.Equal(t, []string{"foo"}, r.Names())

	got, err := r.Get("foo")
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	l := newFakeLoader()
	m, _ := newFoo(t, l)
	require.NoError(t, r.Register(m))
	require.ErrorIs(t, r.Register(m), ErrAlreadyExists)

	_, err := r.Get("bar")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryCloseUnloadsAll(t *testing.T) {
	r := NewRegistry()
	l := newFakeLoader()
	l.files[libPath] = fooBuild(42, plus5)
	m := r.Instance("foo", func() *Module {
		m, _ := newFoo(t, l)
		return m
	})
	require.NoError(t, m.Load())

	require.NoError(t, r.Close())
	requireUnloaded(t, m)
	assert.Empty(t, r.Names())

	n := r.Instance("foo", func() *Module {
		m, _ := newFoo(t, l)
		return m
	})
	assert.NotSame(t, m, n, "teardown forgets instances")
}

func TestRegistryCloseReportsCloseErrors(t *testing.T) {
	r := NewRegistry()
	l := newFakeLoader()
	l.files[libPath] = fooBuild(42, plus5)
	l.closeErr = errors.New("busy")
	m, _ := newFoo(t, l)
	require.NoError(t, r.Register(m))
	require.NoError(t, m.Load())

	err := r.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, l.closeErr)
	requireUnloaded(t, m)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	l := newFakeLoader()
	l.files[libPath] = fooBuild(42, plus5)
	m, _ := newFoo(t, l)
	require.NoError(t, r.Register(m))
	require.NoError(t, m.Load())

	r.Remove("foo")
	r.Remove("foo")
	requireUnloaded(t, m)
	_, err := r.Get("foo")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGlobalRegistry(t *testing.T) {
	t.Cleanup(func() { _ = CloseAll() })
	l := newFakeLoader()
	l.files[libPath] = fooBuild(42, plus5)
	m := Instance("global-foo", func() *Module {
		exports := declare()
		return New("global-foo", exports[:], func() string { return libPath }, WithLoader(l))
	})
	require.NoError(t, m.Load())
	assert.Contains(t, Modules(), "global-foo")
	got, err := Get("global-foo")
	require.NoError(t, err)
	assert.Same(t, m, got)

	require.NoError(t, CloseAll())
	assert.False(t, m.Loaded())
	assert.NotContains(t, Modules(), "global-foo")
}
