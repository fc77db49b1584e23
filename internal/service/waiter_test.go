package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func released(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestNotifySkipsUpToDateWaiters(t *testing.T) {
	w := NewWaitRegistry()
	defer w.Shutdown(time.Second)
	ctx := context.Background()

	stale := w.RegisterWait(ctx, "g", 1)
	current := w.RegisterWait(ctx, "g", 2)
	require.Equal(t, 2, w.Waiting("g"))

	w.NotifyGame("g", 2)
	assert.True(t, released(stale))
	assert.Equal(t, 1, w.Waiting("g"))

	select {
	case <-current:
		t.Fatal("waiter at the current version must keep waiting")
	default:
	}

	w.NotifyGame("g", 3)
	assert.True(t, released(current))
	assert.Equal(t, 0, w.Waiting("g"))
}

func TestCancelledWaiterIsRemoved(t *testing.T) {
	w := NewWaitRegistry()
	defer w.Shutdown(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	ch := w.RegisterWait(ctx, "g", 1)
	cancel()

	assert.True(t, released(ch))
	assert.Eventually(t, func() bool { return w.Waiting("g") == 0 }, time.Second, 5*time.Millisecond)
}

func TestRemoveGameAndShutdownRelease(t *testing.T) {
	w := NewWaitRegistry()
	ctx := context.Background()

	a := w.RegisterWait(ctx, "a", 1)
	b := w.RegisterWait(ctx, "b", 1)

	w.RemoveGame("a")
	assert.True(t, released(a))

	require.NoError(t, w.Shutdown(time.Second))
	assert.True(t, released(b))

	// Late registrations are released immediately
	assert.True(t, released(w.RegisterWait(ctx, "c", 1)))
	assert.NoError(t, w.Shutdown(time.Second))
}
