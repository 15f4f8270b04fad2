// Package vulkantest provides a recording Driver and Window for exercising
// the graphics context without a GPU.
package vulkantest

import (
	"fmt"
	stdmath "math"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/renderer/vulkan"
)

// Device describes one fake physical device.
type Device struct {
	Name          string
	Properties    vk.PhysicalDeviceProperties
	Features      vk.PhysicalDeviceFeatures
	Extensions    []string
	QueueFamilies []vk.QueueFamilyProperties
	// PresentFamilies lists the family indices able to present.
	PresentFamilies []uint32
	Support         vulkan.SwapchainSupport
}

// Driver records every call by name. Creation calls listed in Failures
// return the given error instead of a handle.
type Driver struct {
	Layers     []string
	Devices    []*Device
	ImageCount int
	Failures   map[string]error
	Calls      []string

	// OnCreateInstance runs while the instance is being created.
	OnCreateInstance func()

	InstanceInfo    *vk.InstanceCreateInfo
	DebugInfo       *vk.DebugReportCallbackCreateInfo
	DeviceInfo      *vk.DeviceCreateInfo
	SwapchainInfo   *vk.SwapchainCreateInfo
	ImageViewInfos  []vk.ImageViewCreateInfo
	RenderPassInfo  *vk.RenderPassCreateInfo
	ShaderInfos     []vk.ShaderModuleCreateInfo
	PipelineInfo    *vk.GraphicsPipelineCreateInfo
	FramebufferInfo []vk.FramebufferCreateInfo

	handles  []byte
	byHandle map[vk.PhysicalDevice]*Device
}

// DiscreteGPU is a device passing every requirement with a single family
// serving graphics and presentation.
func DiscreteGPU(name string) *Device {
	d := &Device{
		Name: name,
		Properties: vk.PhysicalDeviceProperties{
			DeviceType: vk.PhysicalDeviceTypeDiscreteGpu,
			Limits: vk.PhysicalDeviceLimits{
				MaxImageDimension2D: 16384,
			},
		},
		Features:   vk.PhysicalDeviceFeatures{GeometryShader: vk.True},
		Extensions: []string{vk.KhrSwapchainExtensionName},
		QueueFamilies: []vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 1},
		},
		PresentFamilies: []uint32{0},
		Support: vulkan.SwapchainSupport{
			Capabilities: vk.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  vk.Extent2D{Width: stdmath.MaxUint32, Height: stdmath.MaxUint32},
				MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []vk.SurfaceFormat{
				{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
				{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		},
	}
	copy(d.Properties.DeviceName[:], name)
	return d
}

// NewDriver returns a driver offering the Khronos validation layer, one
// discrete GPU and three swapchain images.
func NewDriver() *Driver {
	return &Driver{
		Layers:     []string{"VK_LAYER_KHRONOS_validation"},
		Devices:    []*Device{DiscreteGPU("Fake Discrete GPU")},
		ImageCount: 3,
		Failures:   map[string]error{},
	}
}

// Fail makes the named call return err.
func (d *Driver) Fail(call string, err error) {
	d.Failures[call] = err
}

// Reset forgets the recorded calls.
func (d *Driver) Reset() {
	d.Calls = nil
}

// Count returns how many times call was recorded.
func (d *Driver) Count(call string) int {
	n := 0
	for _, c := range d.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (d *Driver) record(call string) error {
	d.Calls = append(d.Calls, call)
	return d.Failures[call]
}

func (d *Driver) device(pd vk.PhysicalDevice) *Device {
	dev, ok := d.byHandle[pd]
	if !ok {
		panic(fmt.Sprintf("vulkantest: unknown physical device %p", pd))
	}
	return dev
}

func (d *Driver) InstanceLayers() ([]string, error) {
	if err := d.record("InstanceLayers"); err != nil {
		return nil, err
	}
	return d.Layers, nil
}

func (d *Driver) CreateInstance(info *vk.InstanceCreateInfo) (vk.Instance, error) {
	d.InstanceInfo = info
	if d.OnCreateInstance != nil {
		d.OnCreateInstance()
	}
	return nil, d.record("CreateInstance")
}

func (d *Driver) DestroyInstance(vk.Instance) {
	d.record("DestroyInstance")
}

func (d *Driver) CreateDebugReporter(_ vk.Instance, info *vk.DebugReportCallbackCreateInfo) (vk.DebugReportCallback, error) {
	d.DebugInfo = info
	return vk.NullDebugReportCallback, d.record("CreateDebugReporter")
}

func (d *Driver) DestroyDebugReporter(vk.Instance, vk.DebugReportCallback) {
	d.record("DestroyDebugReporter")
}

func (d *Driver) DestroySurface(vk.Instance, vk.Surface) {
	d.record("DestroySurface")
}

// PhysicalDevices hands out one distinct handle per fake device.
func (d *Driver) PhysicalDevices(vk.Instance) ([]vk.PhysicalDevice, error) {
	if err := d.record("PhysicalDevices"); err != nil {
		return nil, err
	}
	if len(d.handles) != len(d.Devices) {
		d.handles = make([]byte, len(d.Devices))
	}
	d.byHandle = make(map[vk.PhysicalDevice]*Device, len(d.Devices))
	out := make([]vk.PhysicalDevice, len(d.Devices))
	for i, dev := range d.Devices {
		h := vk.PhysicalDevice(unsafe.Pointer(&d.handles[i]))
		d.byHandle[h] = dev
		out[i] = h
	}
	return out, nil
}

func (d *Driver) DeviceProperties(pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	d.record("DeviceProperties")
	return d.device(pd).Properties
}

func (d *Driver) DeviceFeatures(pd vk.PhysicalDevice) vk.PhysicalDeviceFeatures {
	d.record("DeviceFeatures")
	return d.device(pd).Features
}

func (d *Driver) DeviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	if err := d.record("DeviceExtensions"); err != nil {
		return nil, err
	}
	return d.device(pd).Extensions, nil
}

func (d *Driver) QueueFamilies(pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	d.record("QueueFamilies")
	return d.device(pd).QueueFamilies
}

func (d *Driver) SurfaceSupport(pd vk.PhysicalDevice, family uint32, _ vk.Surface) (bool, error) {
	if err := d.record("SurfaceSupport"); err != nil {
		return false, err
	}
	for _, f := range d.device(pd).PresentFamilies {
		if f == family {
			return true, nil
		}
	}
	return false, nil
}

func (d *Driver) SwapchainSupport(pd vk.PhysicalDevice, _ vk.Surface) (vulkan.SwapchainSupport, error) {
	if err := d.record("SwapchainSupport"); err != nil {
		return vulkan.SwapchainSupport{}, err
	}
	return d.device(pd).Support, nil
}

func (d *Driver) CreateDevice(_ vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	d.DeviceInfo = info
	return nil, d.record("CreateDevice")
}

func (d *Driver) DestroyDevice(vk.Device) {
	d.record("DestroyDevice")
}

func (d *Driver) DeviceQueue(vk.Device, uint32) vk.Queue {
	d.record("DeviceQueue")
	return nil
}

func (d *Driver) DeviceWaitIdle(vk.Device) error {
	return d.record("DeviceWaitIdle")
}

func (d *Driver) CreateSwapchain(_ vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	d.SwapchainInfo = info
	return vk.NullSwapchain, d.record("CreateSwapchain")
}

func (d *Driver) DestroySwapchain(vk.Device, vk.Swapchain) {
	d.record("DestroySwapchain")
}

func (d *Driver) SwapchainImages(vk.Device, vk.Swapchain) ([]vk.Image, error) {
	if err := d.record("SwapchainImages"); err != nil {
		return nil, err
	}
	return make([]vk.Image, d.ImageCount), nil
}

func (d *Driver) CreateImageView(_ vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	if err := d.record("CreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	d.ImageViewInfos = append(d.ImageViewInfos, *info)
	return vk.NullImageView, nil
}

func (d *Driver) DestroyImageView(vk.Device, vk.ImageView) {
	d.record("DestroyImageView")
}

func (d *Driver) CreateRenderPass(_ vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	d.RenderPassInfo = info
	return vk.NullRenderPass, d.record("CreateRenderPass")
}

func (d *Driver) DestroyRenderPass(vk.Device, vk.RenderPass) {
	d.record("DestroyRenderPass")
}

func (d *Driver) CreateShaderModule(_ vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	if err := d.record("CreateShaderModule"); err != nil {
		return vk.NullShaderModule, err
	}
	d.ShaderInfos = append(d.ShaderInfos, *info)
	return vk.NullShaderModule, nil
}

func (d *Driver) DestroyShaderModule(vk.Device, vk.ShaderModule) {
	d.record("DestroyShaderModule")
}

func (d *Driver) CreatePipelineLayout(vk.Device, *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	return vk.NullPipelineLayout, d.record("CreatePipelineLayout")
}

func (d *Driver) DestroyPipelineLayout(vk.Device, vk.PipelineLayout) {
	d.record("DestroyPipelineLayout")
}

func (d *Driver) CreateGraphicsPipeline(_ vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	d.PipelineInfo = info
	return vk.NullPipeline, d.record("CreateGraphicsPipeline")
}

func (d *Driver) DestroyPipeline(vk.Device, vk.Pipeline) {
	d.record("DestroyPipeline")
}

func (d *Driver) CreateFramebuffer(_ vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	if err := d.record("CreateFramebuffer"); err != nil {
		return vk.NullFramebuffer, err
	}
	d.FramebufferInfo = append(d.FramebufferInfo, *info)
	return vk.NullFramebuffer, nil
}

func (d *Driver) DestroyFramebuffer(vk.Device, vk.Framebuffer) {
	d.record("DestroyFramebuffer")
}

// Window is a fixed size window whose surface creation is recorded on the
// driver.
type Window struct {
	Driver     *Driver
	Extensions []string
	Width      uint32
	Height     uint32
}

func NewWindow(d *Driver) *Window {
	return &Window{
		Driver:     d,
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xcb_surface"},
		Width:      800,
		Height:     600,
	}
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.Extensions
}

func (w *Window) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, w.Driver.record("CreateSurface")
}

func (w *Window) FramebufferSize() (uint32, uint32) {
	return w.Width, w.Height
}
