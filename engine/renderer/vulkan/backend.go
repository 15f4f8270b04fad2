package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

// ContextConfig holds everything Build needs besides the driver and the
// window.
type ContextConfig struct {
	ApplicationName string
	EngineName      string

	// Validation enables the validation layers and the debug reporter.
	Validation bool
	// RequireValidation fails the build when a layer is missing instead of
	// continuing without diagnostics.
	RequireValidation  bool
	ValidationLayers   []string
	VerboseDiagnostics bool
	// DiagnosticSink receives validation messages; nil logs them.
	DiagnosticSink DiagnosticSink

	// DeviceExtensions must all be offered by the selected device. Defaults
	// to the swapchain extension.
	DeviceExtensions []string

	// Compiled SPIR-V stages.
	VertexShader   []uint32
	FragmentShader []uint32
}

type builder struct {
	config  ContextConfig
	driver  Driver
	window  Window
	context *VulkanContext

	// validation is the effective diagnostics mode after the layer check.
	validation bool
	physical   *VulkanDevice
}

type buildStep struct {
	name string
	fn   func() error
}

// Build creates the whole graphics chain in order: instance, debug reporter,
// surface, device, swapchain, image views, render pass, pipeline and
// framebuffers. On failure everything created so far is destroyed in reverse
// order and the error names the failing step.
func Build(config ContextConfig, driver Driver, window Window) (*VulkanContext, error) {
	if len(config.DeviceExtensions) == 0 {
		config.DeviceExtensions = []string{vk.KhrSwapchainExtensionName}
	}

	b := &builder{
		config:  config,
		driver:  driver,
		window:  window,
		context: newVulkanContext(driver),
	}
	core.LogInfo("building graphics context %s", b.context.ID)

	steps := []buildStep{
		{"validation layers", b.checkValidationLayers},
		{"instance", b.createInstance},
		{"debug reporter", b.createDebugReporter},
		{"surface", b.createSurface},
		{"physical device", b.selectPhysicalDevice},
		{"logical device", b.createLogicalDevice},
		{"swapchain", b.createSwapchain},
		{"image views", b.createImageViews},
		{"render pass", b.createRenderpass},
		{"graphics pipeline", b.createGraphicsPipeline},
		{"framebuffers", b.createFramebuffers},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			core.LogError("graphics context %s: %s failed: %s", b.context.ID, step.name, err)
			b.context.Destroy()
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	core.LogInfo("graphics context %s ready.", b.context.ID)
	return b.context, nil
}

// checkValidationLayers decides whether diagnostics are actually enabled.
func (b *builder) checkValidationLayers() error {
	b.validation = false
	if !b.config.Validation {
		return nil
	}
	core.LogInfo("Validation layers enabled. Enumerating...")

	available, err := b.driver.InstanceLayers()
	if err != nil {
		return err
	}
	missing := missingNames(b.config.ValidationLayers, available)
	if len(missing) > 0 {
		if b.config.RequireValidation {
			return fmt.Errorf("%w: validation layers %v", core.ErrCapabilityUnavailable, missing)
		}
		core.LogWarn("Validation layers %v are missing, continuing without diagnostics.", missing)
		return nil
	}
	core.LogInfo("All required validation layers are present.")
	b.validation = true
	return nil
}

// instanceExtensions lists the window's extensions, the debug report
// extensions when diagnostics are on and the portability extensions on
// macOS, without duplicates.
func (b *builder) instanceExtensions() []string {
	extensions := appendUnique(nil, b.window.RequiredInstanceExtensions()...)
	if runtime.GOOS == "darwin" {
		extensions = appendUnique(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}
	if b.validation {
		extensions = appendUnique(extensions, vk.ExtDebugReportExtensionName)
	}
	return extensions
}

func (b *builder) createInstance() error {
	// Setup Vulkan instance.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(b.config.ApplicationName),
		PEngineName:        VulkanSafeString(b.config.EngineName),
	}

	extensions := b.instanceExtensions()
	core.LogDebug("Required extensions: %v", extensions)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	if b.validation {
		createInfo.EnabledLayerCount = uint32(len(b.config.ValidationLayers))
		createInfo.PpEnabledLayerNames = VulkanSafeStrings(b.config.ValidationLayers)

		// Chained so instance creation and destruction are reported too.
		attachSink(b.config.DiagnosticSink)
		instanceDebugInfo := b.debugCreateInfo()
		ref, _ := instanceDebugInfo.PassRef()
		createInfo.PNext = unsafe.Pointer(ref)
		defer instanceDebugInfo.Free()
	}

	instance, err := b.driver.CreateInstance(&createInfo)
	if err != nil {
		detachSink()
		return err
	}
	b.context.Instance = instance
	b.context.pushRelease("instance", func() {
		b.driver.DestroyInstance(b.context.Instance)
		b.context.Instance = nil
		detachSink()
	})
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func (b *builder) debugCreateInfo() *vk.DebugReportCallbackCreateInfo {
	return &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       debugReportFlags(b.config.VerboseDiagnostics),
		PfnCallback: dbgCallbackFunc,
	}
}

func (b *builder) createDebugReporter() error {
	if !b.validation {
		return nil
	}
	core.LogDebug("Creating Vulkan debugger...")

	reporter, err := b.driver.CreateDebugReporter(b.context.Instance, b.debugCreateInfo())
	if err != nil {
		return err
	}
	b.context.debugReporter = reporter
	b.context.hasDebugReporter = true
	core.LogDebug("Vulkan debugger created.")
	return nil
}

// pushDebugReporterRelease registers the reporter after the surface so it is
// destroyed before it.
func (b *builder) pushDebugReporterRelease() {
	if !b.context.hasDebugReporter {
		return
	}
	b.context.pushRelease("debug reporter", func() {
		b.driver.DestroyDebugReporter(b.context.Instance, b.context.debugReporter)
		b.context.debugReporter = vk.NullDebugReportCallback
		b.context.hasDebugReporter = false
	})
}

func (b *builder) createSurface() error {
	core.LogDebug("Creating Vulkan surface...")
	surface, err := b.window.CreateSurface(b.context.Instance)
	if err != nil {
		b.pushDebugReporterRelease()
		return err
	}
	b.context.Surface = surface
	b.context.pushRelease("surface", func() {
		b.driver.DestroySurface(b.context.Instance, b.context.Surface)
		b.context.Surface = vk.NullSurface
	})
	b.pushDebugReporterRelease()
	core.LogDebug("Vulkan surface created.")
	return nil
}
