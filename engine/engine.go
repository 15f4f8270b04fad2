package engine

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/spaghettifunk/hellotriangle/engine/assets"
	"github.com/spaghettifunk/hellotriangle/engine/assets/loaders"
	"github.com/spaghettifunk/hellotriangle/engine/core"
	"github.com/spaghettifunk/hellotriangle/engine/platform"
	"github.com/spaghettifunk/hellotriangle/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Everything has been released
	EngineStageShutdown
)

// Platform is the window the engine presents to and pumps events from.
type Platform interface {
	vulkan.Window
	Startup(applicationName string, x uint32, y uint32, width uint32, height uint32, resizable bool) error
	ProcAddr() unsafe.Pointer
	// PumpMessages waits for window events, fires them and returns false once
	// the application should quit.
	PumpMessages(events *core.EventSystem) bool
	RequestClose()
	Shutdown() error
}

// DriverFactory loads the Vulkan entry points from the platform's loader.
type DriverFactory func(procAddr unsafe.Pointer) (vulkan.Driver, error)

type Option func(*Engine)

func WithPlatform(p Platform) Option {
	return func(e *Engine) {
		e.platform = p
	}
}

func WithDriverFactory(f DriverFactory) Option {
	return func(e *Engine) {
		e.newDriver = f
	}
}

type Engine struct {
	currentStage Stage
	app          *Application
	isRunning    bool
	isSuspended  bool

	platform        Platform
	platformStarted bool
	newDriver       DriverFactory
	events          *core.EventSystem
	assetManager    *assets.AssetManager
	context         *vulkan.VulkanContext
	clock           *core.Clock

	width  uint32
	height uint32

	// first error returned by an application hook
	hookErr      error
	shutdownOnce sync.Once
	shutdownErr  error
}

func New(app *Application, opts ...Option) *Engine {
	e := &Engine{
		currentStage: EngineStageUninitialized,
		app:          app,
		platform:     platform.New(),
		newDriver:    vulkan.NewDriver,
		clock:        core.NewClock(),
		width:        app.Config.Window.Width,
		height:       app.Config.Window.Height,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Context is the graphics context, nil before Initialize and after Shutdown.
func (e *Engine) Context() *vulkan.VulkanContext {
	return e.context
}

// RequestClose makes the running loop quit. Safe to call from any goroutine.
func (e *Engine) RequestClose() {
	e.platform.RequestClose()
}

// Initialize opens the window and builds the graphics context. On failure
// everything already started is shut down before the error is returned.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	e.clock.Start()

	if err := e.initialize(); err != nil {
		if serr := e.Shutdown(); serr != nil {
			core.LogError("shutdown after failed initialization: %s", serr)
		}
		return err
	}

	e.clock.Update()
	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized in %s.", e.clock.Elapsed())
	return nil
}

func (e *Engine) initialize() error {
	cfg := e.app.Config

	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidConfig, err)
	}
	core.SetLogLevel(level)

	// initialize events
	e.events = core.NewEventSystem()
	e.events.Register(core.EventCodeApplicationQuit, e, e.onEvent)
	e.events.Register(core.EventCodeEventsProcessed, e, e.onEvent)
	e.events.Register(core.EventCodeRedrawRequested, e, e.onEvent)
	e.events.Register(core.EventCodeResized, e, e.onResized)

	if err := e.platform.Startup(cfg.Window.Title,
		cfg.Window.StartPosX,
		cfg.Window.StartPosY,
		cfg.Window.Width,
		cfg.Window.Height,
		cfg.Window.Resizable); err != nil {
		return err
	}
	e.platformStarted = true

	am, err := assets.NewAssetManager(cfg.Assets.ShaderDir)
	if err != nil {
		return err
	}
	e.assetManager = am

	vert, err := am.LoadShader(cfg.Assets.VertexShader)
	if err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}
	// the modules are built from the words once, they are not kept
	defer e.unloadShader(vert)
	frag, err := am.LoadShader(cfg.Assets.FragmentShader)
	if err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}
	defer e.unloadShader(frag)
	core.LogDebug("Shaders loaded: %s (%d bytes), %s (%d bytes)", vert.Name, vert.DataSize, frag.Name, frag.DataSize)

	if cfg.Assets.WatchShaders {
		if err := am.Watch(func(info assets.AssetInfo) {
			if info.Type == assets.AssetTypeShaderBinary {
				core.LogWarn("Shader `%s` changed on disk, restart to apply.", info.Path)
			}
		}); err != nil {
			return err
		}
	}

	driver, err := e.newDriver(e.platform.ProcAddr())
	if err != nil {
		return err
	}

	ctx, err := vulkan.Build(vulkan.ContextConfig{
		ApplicationName:    cfg.Vulkan.ApplicationName,
		EngineName:         cfg.Vulkan.EngineName,
		Validation:         cfg.Vulkan.Validation,
		RequireValidation:  cfg.Vulkan.RequireValidation,
		ValidationLayers:   cfg.Vulkan.ValidationLayers,
		VerboseDiagnostics: cfg.Vulkan.VerboseDiagnostics,
		VertexShader:       vert.Code,
		FragmentShader:     frag.Code,
	}, driver, e.platform)
	if err != nil {
		return err
	}
	e.context = ctx
	return nil
}

func (e *Engine) unloadShader(res *loaders.Resource) {
	if err := e.assetManager.UnloadShader(res); err != nil {
		core.LogWarn("unable to unload shader `%s`: %s", res.Name, err)
	}
}

// Run pumps window events until the application quits, then shuts the engine
// down. Shutdown runs exactly once whatever the outcome.
func (e *Engine) Run() (err error) {
	defer func() {
		if serr := e.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()

	if e.currentStage != EngineStageInitialized {
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	for e.isRunning {
		if !e.platform.PumpMessages(e.events) {
			e.isRunning = false
		}
	}

	e.clock.Update()
	core.LogInfo("Event loop finished after %s.", e.clock.Elapsed())
	return e.hookErr
}

// Shutdown releases the graphics context, the asset manager and the window in
// that order. Only the first call does anything.
func (e *Engine) Shutdown() error {
	e.shutdownOnce.Do(func() {
		e.currentStage = EngineStageShuttingDown
		e.isRunning = false

		var errs []error
		if e.context != nil {
			e.context.Destroy()
			e.context = nil
		}
		if e.assetManager != nil {
			errs = append(errs, e.assetManager.Close())
			e.assetManager = nil
		}
		if e.events != nil {
			e.events.Shutdown()
		}
		if e.platformStarted {
			errs = append(errs, e.platform.Shutdown())
			e.platformStarted = false
		}
		e.clock.Stop()

		e.shutdownErr = errors.Join(errs...)
		e.currentStage = EngineStageShutdown
	})
	return e.shutdownErr
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) fail(err error) {
	if e.hookErr == nil {
		e.hookErr = err
	}
	e.isRunning = false
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EventCodeApplicationQuit:
		core.LogInfo("EventCodeApplicationQuit received, shutting down.")
		e.isRunning = false
		return true
	case core.EventCodeRedrawRequested:
		if e.app.FnOnRedraw != nil && !e.isSuspended {
			if err := e.app.FnOnRedraw(); err != nil {
				e.fail(fmt.Errorf("redraw: %w", err))
			}
		}
	case core.EventCodeEventsProcessed:
		if e.app.FnOnEventsProcessed != nil {
			if err := e.app.FnOnEventsProcessed(); err != nil {
				e.fail(fmt.Errorf("events processed: %w", err))
			}
		}
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.app.FnOnResize != nil {
		if err := e.app.FnOnResize(width, height); err != nil {
			e.fail(fmt.Errorf("resize: %w", err))
		}
	}
	return false
}
