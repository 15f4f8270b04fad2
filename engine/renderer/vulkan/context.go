package vulkan

import (
	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

type release struct {
	name string
	fn   func()
}

// VulkanContext owns the whole graphics chain. Every object is registered on
// the release stack as it is created and Destroy releases them in reverse.
type VulkanContext struct {
	// ID correlates the log lines of one context.
	ID uuid.UUID

	Instance vk.Instance
	Surface  vk.Surface

	// Only set when diagnostics are enabled.
	debugReporter    vk.DebugReportCallback
	hasDebugReporter bool

	// Set once the logical device exists.
	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
	Pipeline       *VulkanPipeline
	// One per swapchain image view, same order.
	Framebuffers []*VulkanFramebuffer

	driver    Driver
	releases  []release
	destroyed bool
}

func newVulkanContext(driver Driver) *VulkanContext {
	return &VulkanContext{
		ID:     uuid.New(),
		driver: driver,
	}
}

// pushRelease registers fn to run at teardown, before everything pushed
// earlier.
func (vc *VulkanContext) pushRelease(name string, fn func()) {
	vc.releases = append(vc.releases, release{name: name, fn: fn})
}

// Releases lists the owned objects in creation order.
func (vc *VulkanContext) Releases() []string {
	names := make([]string, len(vc.releases))
	for i, r := range vc.releases {
		names[i] = r.name
	}
	return names
}

func (vc *VulkanContext) DiagnosticsEnabled() bool {
	return vc.hasDebugReporter
}

// Destroy releases every object still owned, newest first. Calling it again
// is a no-op.
func (vc *VulkanContext) Destroy() {
	if vc.destroyed {
		return
	}
	vc.destroyed = true

	if vc.Device != nil {
		if err := vc.driver.DeviceWaitIdle(vc.Device.LogicalDevice); err != nil {
			core.LogWarn("graphics context %s: %s", vc.ID, err)
		}
	}

	core.LogDebug("graphics context %s: releasing %d object(s)", vc.ID, len(vc.releases))
	for i := len(vc.releases) - 1; i >= 0; i-- {
		r := vc.releases[i]
		core.LogDebug("destroying %s", r.name)
		r.fn()
	}
	vc.releases = nil
	core.LogInfo("graphics context %s destroyed", vc.ID)
}
