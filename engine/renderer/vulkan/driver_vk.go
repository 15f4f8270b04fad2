package vulkan

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

type vkDriver struct{}

// NewDriver loads the Vulkan entry points through the given
// vkGetInstanceProcAddr, as handed out by the windowing library.
func NewDriver(procAddr unsafe.Pointer) (Driver, error) {
	if procAddr == nil {
		return nil, errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return nil, err
	}
	return &vkDriver{}, nil
}

func (vkDriver) InstanceLayers() ([]string, error) {
	var count uint32
	if err := checkResult("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := checkResult("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range layers[:count] {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vkDriver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	var instance vk.Instance
	if err := checkResult("vkCreateInstance", vk.CreateInstance(info, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}
	return instance, nil
}

func (vkDriver) DestroyInstance(instance vk.Instance) {
	vk.DestroyInstance(instance, nil)
}

func (vkDriver) CreateDebugReporter(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, error) {
	var dbg vk.DebugReportCallback
	if err := checkResult("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(instance, info, nil, &dbg)); err != nil {
		return vk.NullDebugReportCallback, err
	}
	return dbg, nil
}

func (vkDriver) DestroyDebugReporter(instance vk.Instance, reporter vk.DebugReportCallback) {
	vk.DestroyDebugReportCallback(instance, reporter, nil)
}

func (vkDriver) DestroySurface(instance vk.Instance, surface vk.Surface) {
	vk.DestroySurface(instance, surface, nil)
}

func (vkDriver) PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := checkResult("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, devices)); err != nil {
		return nil, err
	}
	return devices[:count], nil
}

func (vkDriver) DeviceProperties(device vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	properties.Limits.Deref()
	return properties
}

func (vkDriver) DeviceFeatures(device vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(device, &features)
	features.Deref()
	return features
}

func (vkDriver) DeviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, err
	}
	extensions := make([]vk.ExtensionProperties, count)
	if err := checkResult("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, extensions)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range extensions[:count] {
		extensions[i].Deref()
		names = append(names, vk.ToString(extensions[i].ExtensionName[:]))
	}
	return names, nil
}

func (vkDriver) QueueFamilies(device vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	for i := range families {
		families[i].Deref()
	}
	return families
}

func (vkDriver) SurfaceSupport(device vk.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	if err := checkResult("vkGetPhysicalDeviceSurfaceSupportKHR", vk.GetPhysicalDeviceSurfaceSupport(device, family, surface, &supported)); err != nil {
		return false, err
	}
	return supported == vk.True, nil
}

func (vkDriver) SwapchainSupport(device vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	support := SwapchainSupport{}

	// Surface capabilities
	if err := checkResult("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(device, surface, &support.Capabilities)); err != nil {
		return support, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	// Surface formats
	var formatCount uint32
	if err := checkResult("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, nil)); err != nil {
		return support, err
	}
	if formatCount != 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := checkResult("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(device, surface, &formatCount, support.Formats)); err != nil {
			return support, err
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	// Present modes
	var modeCount uint32
	if err := checkResult("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, nil)); err != nil {
		return support, err
	}
	if modeCount != 0 {
		support.PresentModes = make([]vk.PresentMode, modeCount)
		if err := checkResult("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(device, surface, &modeCount, support.PresentModes)); err != nil {
			return support, err
		}
	}
	return support, nil
}

func (vkDriver) CreateDevice(physical vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var device vk.Device
	if err := checkResult("vkCreateDevice", vk.CreateDevice(physical, info, nil, &device)); err != nil {
		return nil, err
	}
	return device, nil
}

func (vkDriver) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

func (vkDriver) DeviceQueue(device vk.Device, family uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)
	return queue
}

func (vkDriver) DeviceWaitIdle(device vk.Device) error {
	return checkResult("vkDeviceWaitIdle", vk.DeviceWaitIdle(device))
}

func (vkDriver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := checkResult("vkCreateSwapchainKHR", vk.CreateSwapchain(device, info, nil, &swapchain)); err != nil {
		return vk.NullSwapchain, err
	}
	return swapchain, nil
}

func (vkDriver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

func (vkDriver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := checkResult("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device, swapchain, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := checkResult("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device, swapchain, &count, images)); err != nil {
		return nil, err
	}
	return images[:count], nil
}

func (vkDriver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := checkResult("vkCreateImageView", vk.CreateImageView(device, info, nil, &view)); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (vkDriver) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, nil)
}

func (vkDriver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderpass vk.RenderPass
	if err := checkResult("vkCreateRenderPass", vk.CreateRenderPass(device, info, nil, &renderpass)); err != nil {
		return vk.NullRenderPass, err
	}
	return renderpass, nil
}

func (vkDriver) DestroyRenderPass(device vk.Device, renderpass vk.RenderPass) {
	vk.DestroyRenderPass(device, renderpass, nil)
}

func (vkDriver) CreateShaderModule(device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	if err := checkResult("vkCreateShaderModule", vk.CreateShaderModule(device, info, nil, &module)); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

func (vkDriver) DestroyShaderModule(device vk.Device, module vk.ShaderModule) {
	vk.DestroyShaderModule(device, module, nil)
}

func (vkDriver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var layout vk.PipelineLayout
	if err := checkResult("vkCreatePipelineLayout", vk.CreatePipelineLayout(device, info, nil, &layout)); err != nil {
		return vk.NullPipelineLayout, err
	}
	return layout, nil
}

func (vkDriver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device, layout, nil)
}

func (vkDriver) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines)
	if err := checkResult("vkCreateGraphicsPipelines", res); err != nil {
		return vk.NullPipeline, err
	}
	return pipelines[0], nil
}

func (vkDriver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(device, pipeline, nil)
}

func (vkDriver) CreateFramebuffer(device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if err := checkResult("vkCreateFramebuffer", vk.CreateFramebuffer(device, info, nil, &framebuffer)); err != nil {
		return vk.NullFramebuffer, err
	}
	return framebuffer, nil
}

func (vkDriver) DestroyFramebuffer(device vk.Device, framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(device, framebuffer, nil)
}

// checkResult turns a failing result code into a ResultError. Non-error
// codes other than VK_SUCCESS are logged and accepted.
func checkResult(op string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	if VulkanResultIsSuccess(res) {
		core.LogWarn("%s returned %s", op, VulkanResultString(res, false))
		return nil
	}
	return &ResultError{Op: op, Result: res}
}
