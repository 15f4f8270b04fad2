package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

const portabilitySubsetExtensionName = "VK_KHR_portability_subset"

type VulkanDevice struct {
	PhysicalDevice   vk.PhysicalDevice
	LogicalDevice    vk.Device
	Properties       vk.PhysicalDeviceProperties
	Features         vk.PhysicalDeviceFeatures
	SwapchainSupport SwapchainSupport
	QueueFamilies    QueueFamilyIndices
	// Device extensions enabled on the logical device.
	Extensions []string
	Score      uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
}

func (d *VulkanDevice) Name() string {
	return vk.ToString(d.Properties.DeviceName[:])
}

type QueueFamilyIndices struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
	hasGraphics         bool
	hasPresent          bool
}

func (q QueueFamilyIndices) Complete() bool {
	return q.hasGraphics && q.hasPresent
}

// Unique returns the distinct family indices, graphics first. One queue is
// created per entry.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.GraphicsFamilyIndex == q.PresentFamilyIndex {
		return []uint32{q.GraphicsFamilyIndex}
	}
	return []uint32{q.GraphicsFamilyIndex, q.PresentFamilyIndex}
}

// rateDeviceSuitability scores a device: discrete GPUs get a 1000 point
// bonus, the maximum 2D image size is added, and a device without geometry
// shaders scores 0.
func rateDeviceSuitability(properties *vk.PhysicalDeviceProperties, features *vk.PhysicalDeviceFeatures) uint32 {
	if features.GeometryShader == vk.False {
		return 0
	}
	var score uint32
	if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		score += 1000
	}
	score += properties.Limits.MaxImageDimension2D
	return score
}

// pickHighestScore returns the index of the first maximum, or -1 for an empty
// list.
func pickHighestScore(scores []uint32) int {
	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}

// findQueueFamilies scans every family once and keeps the first graphics
// capable index and the first index able to present.
func findQueueFamilies(families []vk.QueueFamilyProperties, supportsPresent func(index uint32) (bool, error)) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	for i, family := range families {
		index := uint32(i)
		if !indices.hasGraphics && family.QueueCount > 0 &&
			family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.GraphicsFamilyIndex = index
			indices.hasGraphics = true
		}
		if !indices.hasPresent {
			ok, err := supportsPresent(index)
			if err != nil {
				return indices, err
			}
			if ok {
				indices.PresentFamilyIndex = index
				indices.hasPresent = true
			}
		}
		if indices.Complete() {
			break
		}
	}
	if !indices.Complete() {
		return indices, core.ErrQueueFamiliesNotFound
	}
	return indices, nil
}

func deviceTypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	default:
		return "Unknown"
	}
}

// selectPhysicalDevice rates every device, keeps the best one and then
// verifies it can actually drive the surface.
func (b *builder) selectPhysicalDevice() error {
	devices, err := b.driver.PhysicalDevices(b.context.Instance)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return core.ErrNoDevices
	}

	candidates := make([]*VulkanDevice, len(devices))
	scores := make([]uint32, len(devices))
	for i, pd := range devices {
		d := &VulkanDevice{
			PhysicalDevice: pd,
			Properties:     b.driver.DeviceProperties(pd),
			Features:       b.driver.DeviceFeatures(pd),
		}
		d.Score = rateDeviceSuitability(&d.Properties, &d.Features)
		candidates[i] = d
		scores[i] = d.Score
		core.LogDebug("device %d: '%s' (%s) scored %d", i, d.Name(), deviceTypeString(d.Properties.DeviceType), d.Score)
	}

	selected := candidates[pickHighestScore(scores)]
	if err := b.checkDeviceRequirements(selected); err != nil {
		return fmt.Errorf("%w: '%s': %w", core.ErrNoSuitableDevice, selected.Name(), err)
	}

	core.LogInfo("Selected device: '%s'.", selected.Name())
	core.LogInfo("GPU type is %s.", deviceTypeString(selected.Properties.DeviceType))
	core.LogInfo("GPU Driver version: %s", versionString(selected.Properties.DriverVersion))
	core.LogInfo("Vulkan API version: %s", versionString(selected.Properties.ApiVersion))
	core.LogDebug("Graphics Family Index: %d", selected.QueueFamilies.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", selected.QueueFamilies.PresentFamilyIndex)

	b.physical = selected
	return nil
}

// checkDeviceRequirements fills in the queue families, the extensions to
// enable and the swapchain support of d, failing on the first unmet
// requirement.
func (b *builder) checkDeviceRequirements(d *VulkanDevice) error {
	if d.Features.GeometryShader == vk.False {
		return fmt.Errorf("geometry shaders are not supported")
	}

	families := b.driver.QueueFamilies(d.PhysicalDevice)
	indices, err := findQueueFamilies(families, func(index uint32) (bool, error) {
		return b.driver.SurfaceSupport(d.PhysicalDevice, index, b.context.Surface)
	})
	if err != nil {
		return err
	}
	d.QueueFamilies = indices

	available, err := b.driver.DeviceExtensions(d.PhysicalDevice)
	if err != nil {
		return err
	}
	if missing := missingNames(b.config.DeviceExtensions, available); len(missing) > 0 {
		return fmt.Errorf("%w: device extensions %v", core.ErrCapabilityUnavailable, missing)
	}
	d.Extensions = appendUnique(nil, b.config.DeviceExtensions...)
	if len(missingNames([]string{portabilitySubsetExtensionName}, available)) == 0 {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		d.Extensions = appendUnique(d.Extensions, portabilitySubsetExtensionName)
	}

	support, err := b.driver.SwapchainSupport(d.PhysicalDevice, b.context.Surface)
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return fmt.Errorf("surface reports %d format(s) and %d present mode(s)", len(support.Formats), len(support.PresentModes))
	}
	d.SwapchainSupport = support
	return nil
}

func (b *builder) createLogicalDevice() error {
	d := b.physical

	// NOTE: Do not create additional queues for shared indices.
	unique := d.QueueFamilies.Unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(unique))
	for i, index := range unique {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(d.Extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(d.Extensions),
	}
	// Ignored by current loaders, kept for older implementations.
	if b.validation {
		deviceCreateInfo.EnabledLayerCount = uint32(len(b.config.ValidationLayers))
		deviceCreateInfo.PpEnabledLayerNames = VulkanSafeStrings(b.config.ValidationLayers)
	}

	logical, err := b.driver.CreateDevice(d.PhysicalDevice, &deviceCreateInfo)
	if err != nil {
		return err
	}
	d.LogicalDevice = logical
	b.context.Device = d
	b.context.pushRelease("logical device", func() {
		b.driver.DestroyDevice(d.LogicalDevice)
		d.LogicalDevice = nil
		b.context.Device = nil
	})
	core.LogInfo("Logical device created.")

	d.GraphicsQueue = b.driver.DeviceQueue(logical, d.QueueFamilies.GraphicsFamilyIndex)
	d.PresentQueue = b.driver.DeviceQueue(logical, d.QueueFamilies.PresentFamilyIndex)
	core.LogDebug("Queues obtained.")
	return nil
}
