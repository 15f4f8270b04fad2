package platform

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/containers"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

// Window events buffered between two pumps.
const pendingEventCapacity = 64

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the GLFW window. Every method except RequestClose must be
// called from the main thread.
type Platform struct {
	Window *glfw.Window

	closeRequested atomic.Bool

	// guards started against a concurrent RequestClose
	mu      sync.Mutex
	started bool
	// wakes a blocked WaitEvents
	wake func()

	// filled by the GLFW callbacks during WaitEvents
	pending *containers.RingQueue[core.EventContext]
}

func New() *Platform {
	return &Platform{
		Window:  nil,
		pending: containers.NewRingQueue[core.EventContext](pendingEventCapacity),
		wake:    glfw.PostEmptyEvent,
	}
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32, resizable bool) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return fmt.Errorf("%w: glfw found no Vulkan loader", core.ErrCapabilityUnavailable)
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	if resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.Window = window

	p.Window.SetRefreshCallback(p.refreshCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.mu.Lock()
	p.started = true
	p.mu.Unlock()

	core.LogInfo("Window '%s' created (%dx%d).", applicationName, width, height)
	return nil
}

// ProcAddr is the loader entry point the Vulkan bindings resolve everything
// else from.
func (p *Platform) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("glfwCreateWindowSurface: %w", err)
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// PumpMessages blocks until the window system has something to deliver, then
// fires the matching events. It returns false once the application should
// quit.
func (p *Platform) PumpMessages(events *core.EventSystem) bool {
	glfw.WaitEvents()

	if p.Window.ShouldClose() || p.closeRequested.Load() {
		events.Fire(core.EventContext{Type: core.EventCodeApplicationQuit, Sender: p})
		return false
	}

	for !p.pending.IsEmpty() {
		ctx, _ := p.pending.Dequeue()
		events.Fire(ctx)
	}
	events.Fire(core.EventContext{Type: core.EventCodeEventsProcessed, Sender: p})
	return true
}

// RequestClose asks the loop to quit. Safe to call from any goroutine.
func (p *Platform) RequestClose() {
	p.closeRequested.Store(true)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.wake()
	}
}

// markStopped returns once no RequestClose can reach GLFW anymore.
func (p *Platform) markStopped() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

func (p *Platform) Shutdown() error {
	p.markStopped()
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// push queues ctx for the next pump, dropping the oldest event when the
// queue is full.
func (p *Platform) push(ctx core.EventContext) {
	if p.pending.IsFull() {
		dropped, _ := p.pending.Dequeue()
		core.LogDebug("dropping pending %s event", dropped.Type)
	}
	_ = p.pending.Enqueue(ctx)
}

func (p *Platform) refreshCallback(w *glfw.Window) {
	p.push(core.EventContext{Type: core.EventCodeRedrawRequested, Sender: p})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	ctx := core.EventContext{Type: core.EventCodeResized, Sender: p}
	ctx.Data.U32[0] = uint32(width)
	ctx.Data.U32[1] = uint32(height)
	p.push(ctx)
}
