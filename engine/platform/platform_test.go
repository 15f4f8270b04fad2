package platform

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/hellotriangle/engine/core"
)

func TestCallbacksQueueEventsInOrder(t *testing.T) {
	p := New()
	p.framebufferSizeCallback(nil, 800, 600)
	p.refreshCallback(nil)

	require.Equal(t, 2, p.pending.Len())
	first, _ := p.pending.Dequeue()
	assert.Equal(t, core.EventCodeResized, first.Type)
	assert.Equal(t, uint32(800), first.Data.U32[0])
	assert.Equal(t, uint32(600), first.Data.U32[1])

	second, _ := p.pending.Dequeue()
	assert.Equal(t, core.EventCodeRedrawRequested, second.Type)
}

func TestPendingEventsDropOldest(t *testing.T) {
	p := New()
	for i := 0; i <= pendingEventCapacity; i++ {
		p.framebufferSizeCallback(nil, i, i)
	}

	assert.Equal(t, pendingEventCapacity, p.pending.Len())
	oldest, _ := p.pending.Peek()
	assert.Equal(t, uint32(1), oldest.Data.U32[0])
}

func TestRequestCloseBeforeStartup(t *testing.T) {
	p := New()
	woken := 0
	p.wake = func() { woken++ }

	p.RequestClose()
	assert.True(t, p.closeRequested.Load())
	assert.Zero(t, woken)
}

func TestRequestCloseWakesOnlyWhileStarted(t *testing.T) {
	p := New()
	woken := 0
	p.wake = func() { woken++ }
	p.started = true

	p.RequestClose()
	assert.Equal(t, 1, woken)

	p.markStopped()
	p.RequestClose()
	assert.Equal(t, 1, woken)
}

func TestRequestCloseRacingShutdown(t *testing.T) {
	p := New()
	var terminated atomic.Bool
	var lateWakes atomic.Int32
	p.wake = func() {
		if terminated.Load() {
			lateWakes.Add(1)
		}
	}
	p.started = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.RequestClose()
			}
		}()
	}
	p.markStopped()
	terminated.Store(true)
	wg.Wait()

	assert.Zero(t, lateWakes.Load())
}
