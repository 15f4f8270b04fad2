package engine

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/hellotriangle/engine/core"
	"github.com/spaghettifunk/hellotriangle/engine/renderer/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/renderer/vulkan/vulkantest"
)

// fakePlatform replays one scripted batch of events per pump.
type fakePlatform struct {
	*vulkantest.Window

	startErr  error
	started   bool
	shutdowns int
	closed    bool
	pumps     int
	batches   [][]core.EventContext
}

func (p *fakePlatform) Startup(string, uint32, uint32, uint32, uint32, bool) error {
	if p.startErr != nil {
		return p.startErr
	}
	p.started = true
	return nil
}

func (p *fakePlatform) ProcAddr() unsafe.Pointer { return nil }

func (p *fakePlatform) PumpMessages(events *core.EventSystem) bool {
	p.pumps++
	if p.closed || len(p.batches) == 0 {
		events.Fire(core.EventContext{Type: core.EventCodeApplicationQuit})
		return false
	}
	batch := p.batches[0]
	p.batches = p.batches[1:]
	for _, ev := range batch {
		events.Fire(ev)
	}
	events.Fire(core.EventContext{Type: core.EventCodeEventsProcessed})
	return true
}

func (p *fakePlatform) RequestClose() { p.closed = true }

func (p *fakePlatform) Shutdown() error {
	p.shutdowns++
	return nil
}

func writeShaders(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	words := []uint32{0x07230203, 0x00010000, 0, 8, 0}
	b := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vert.spv"), b, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frag.spv"), b, 0o644))
	return dir
}

func newTestEngine(t *testing.T) (*Engine, *fakePlatform, *vulkantest.Driver) {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Assets.ShaderDir = writeShaders(t)

	driver := vulkantest.NewDriver()
	p := &fakePlatform{Window: vulkantest.NewWindow(driver)}
	e := New(NewApplication(cfg),
		WithPlatform(p),
		WithDriverFactory(func(unsafe.Pointer) (vulkan.Driver, error) { return driver, nil }),
	)
	return e, p, driver
}

func resized(w, h uint32) core.EventContext {
	ctx := core.EventContext{Type: core.EventCodeResized}
	ctx.Data.U32[0] = w
	ctx.Data.U32[1] = h
	return ctx
}

func TestEngineRunUntilQuit(t *testing.T) {
	e, p, driver := newTestEngine(t)

	processed, redraws := 0, 0
	e.app.FnOnEventsProcessed = func() error { processed++; return nil }
	e.app.FnOnRedraw = func() error { redraws++; return nil }
	p.batches = [][]core.EventContext{
		{{Type: core.EventCodeRedrawRequested}},
		{},
	}

	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())
	require.NotNil(t, e.Context())

	require.NoError(t, e.Run())
	assert.Equal(t, 3, p.pumps)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, redraws)
	assert.Equal(t, 1, p.shutdowns)
	assert.Equal(t, 1, driver.Count("DestroyInstance"))
	assert.Nil(t, e.Context())
	assert.Equal(t, EngineStageShutdown, e.Stage())
}

func TestEngineShutdownOnce(t *testing.T) {
	e, p, driver := newTestEngine(t)
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())

	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, p.shutdowns)
	assert.Equal(t, 1, driver.Count("DestroyInstance"))
}

func TestEngineRequestClose(t *testing.T) {
	e, p, _ := newTestEngine(t)
	p.batches = [][]core.EventContext{{}, {}, {}}
	require.NoError(t, e.Initialize())

	e.RequestClose()
	require.NoError(t, e.Run())
	assert.Equal(t, 1, p.pumps)
}

func TestEngineHookErrorStopsLoop(t *testing.T) {
	e, p, _ := newTestEngine(t)
	boom := errors.New("boom")
	e.app.FnOnEventsProcessed = func() error { return boom }
	p.batches = [][]core.EventContext{{}, {}, {}}

	require.NoError(t, e.Initialize())
	err := e.Run()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.pumps)
	assert.Equal(t, 1, p.shutdowns)
}

func TestEngineResize(t *testing.T) {
	e, p, _ := newTestEngine(t)

	var sizes [][2]uint32
	redraws := 0
	e.app.FnOnResize = func(w, h uint32) error {
		sizes = append(sizes, [2]uint32{w, h})
		return nil
	}
	e.app.FnOnRedraw = func() error { redraws++; return nil }
	p.batches = [][]core.EventContext{
		{resized(800, 600)},
		{resized(0, 0), {Type: core.EventCodeRedrawRequested}},
		{resized(1024, 768), {Type: core.EventCodeRedrawRequested}},
	}

	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())

	assert.Equal(t, [][2]uint32{{800, 600}, {1024, 768}}, sizes)
	assert.Equal(t, 1, redraws, "no redraw while minimized")
	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), h)
}

func TestEngineRunBeforeInitialize(t *testing.T) {
	e, p, _ := newTestEngine(t)
	assert.ErrorIs(t, e.Run(), core.ErrNotInitialized)
	assert.Zero(t, p.shutdowns, "platform was never started")
}

func TestEngineInitializeFailures(t *testing.T) {
	t.Run("platform", func(t *testing.T) {
		e, p, driver := newTestEngine(t)
		p.startErr = errors.New("no display")

		err := e.Initialize()
		assert.ErrorIs(t, err, p.startErr)
		assert.Zero(t, p.shutdowns)
		assert.Empty(t, driver.Calls)
	})

	t.Run("missing shader", func(t *testing.T) {
		e, p, driver := newTestEngine(t)
		e.app.Config.Assets.FragmentShader = "missing.spv"

		err := e.Initialize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fragment shader")
		assert.Equal(t, 1, p.shutdowns)
		assert.Empty(t, driver.Calls)
	})

	t.Run("graphics context", func(t *testing.T) {
		e, p, driver := newTestEngine(t)
		driver.Devices = nil

		err := e.Initialize()
		assert.ErrorIs(t, err, core.ErrNoDevices)
		assert.Equal(t, 1, p.shutdowns)
		assert.Equal(t, 1, driver.Count("DestroyInstance"))
		assert.Nil(t, e.Context())
	})

	t.Run("driver", func(t *testing.T) {
		e, p, _ := newTestEngine(t)
		loaderErr := errors.New("no loader")
		e.newDriver = func(unsafe.Pointer) (vulkan.Driver, error) { return nil, loaderErr }

		assert.ErrorIs(t, e.Initialize(), loaderErr)
		assert.Equal(t, 1, p.shutdowns)
	})
}

func TestEngineInitializeTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.Initialize())
	defer e.Shutdown()
	assert.Error(t, e.Initialize())
}
