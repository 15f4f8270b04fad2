package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Window is the windowing collaborator the context is built against.
type Window interface {
	// RequiredInstanceExtensions lists the instance extensions needed to
	// present to this window.
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// FramebufferSize is the drawable size in pixels.
	FramebufferSize() (width uint32, height uint32)
}

// Driver is the set of Vulkan entry points the context builder sequences.
// Queries return values already dereferenced and names without their
// terminating null byte.
type Driver interface {
	InstanceLayers() ([]string, error)
	CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error)
	DestroyInstance(instance vk.Instance)

	CreateDebugReporter(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, error)
	DestroyDebugReporter(instance vk.Instance, reporter vk.DebugReportCallback)

	DestroySurface(instance vk.Instance, surface vk.Surface)

	PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error)
	DeviceProperties(device vk.PhysicalDevice) vk.PhysicalDeviceProperties
	DeviceFeatures(device vk.PhysicalDevice) vk.PhysicalDeviceFeatures
	DeviceExtensions(device vk.PhysicalDevice) ([]string, error)
	QueueFamilies(device vk.PhysicalDevice) []vk.QueueFamilyProperties
	SurfaceSupport(device vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error)
	SwapchainSupport(device vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error)

	CreateDevice(physical vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error)
	DestroyDevice(device vk.Device)
	DeviceQueue(device vk.Device, family uint32) vk.Queue
	DeviceWaitIdle(device vk.Device) error

	CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	DestroySwapchain(device vk.Device, swapchain vk.Swapchain)
	SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error)

	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(device vk.Device, view vk.ImageView)

	CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(device vk.Device, renderpass vk.RenderPass)

	CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error)
	DestroyShaderModule(device vk.Device, module vk.ShaderModule)

	CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout)
	CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(device vk.Device, pipeline vk.Pipeline)

	CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer)
}
