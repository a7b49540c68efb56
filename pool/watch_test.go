package pool

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ZenLiuCN/hotreload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type reloadEvent struct {
	name string
	err  error
}

func TestWatchReloadsRebuiltLibrary(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, _ := newTestPool(t)
	b := newBarModule(t, "bar", t.TempDir(), newFileLoader())
	b.write(t, 42)
	require.NoError(t, p.Add(b.Module))
	require.NoError(t, p.Load("bar"))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan reloadEvent, 8)
	done := make(chan error, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		done <- p.Watch(ctx, WatchConfig{
			Settle:     20 * time.Millisecond,
			MaxElapsed: time.Second,
			OnReload: func(name string, err error) {
				select {
				case events <- reloadEvent{name, err}:
				default:
				}
			},
		})
	}()
	<-ready

	// the watch may start after the first write, keep rebuilding until a reload lands
	var ev reloadEvent
	deadline := time.After(5 * time.Second)
wait:
	for {
		tmp := b.path + ".tmp"
		require.NoError(t, os.WriteFile(tmp, []byte("-2"), 0o644))
		require.NoError(t, os.Rename(tmp, b.path))
		select {
		case ev = <-events:
			break wait
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
	require.NoError(t, ev.err)
	assert.Equal(t, "bar", ev.name)
	var v int32
	require.NoError(t, p.Use("bar", func(m *hotreload.Module) (err error) {
		v, err = b.bar.Value(m)
		return
	}))
	assert.EqualValues(t, -2, v)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchWithoutModules(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, _ := newTestPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Watch(ctx, WatchConfig{}))
}
