package vulkan

import (
	"fmt"
	stdmath "math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
	"github.com/spaghettifunk/hellotriangle/engine/math"
)

type VulkanSwapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
	Images      []vk.Image
	// Index aligned with Images.
	Views []vk.ImageView
}

type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether the surface can be presented to at all.
func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// chooseSwapSurfaceFormat prefers 8-bit sRGB RGBA in the sRGB color space,
// wherever it is in the list, and falls back to the first format.
func chooseSwapSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		// Preferred formats
		if format.Format == vk.FormatR8g8b8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

func chooseSwapPresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	// always available
	return vk.PresentModeFifo
}

// chooseSwapExtent uses the surface's current extent unless the surface
// leaves it to the application, in which case the framebuffer size is
// clamped to the allowed range.
func chooseSwapExtent(capabilities *vk.SurfaceCapabilities, width uint32, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != stdmath.MaxUint32 {
		return capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  math.Clamp(width, min.Width, max.Width),
		Height: math.Clamp(height, min.Height, max.Height),
	}
}

// swapchainImageCount asks for one image more than the minimum, within the
// maximum when the surface has one (0 means unbounded).
func swapchainImageCount(capabilities *vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// imageSharing shares the images between both families when they differ.
func imageSharing(indices QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.GraphicsFamilyIndex != indices.PresentFamilyIndex {
		return vk.SharingModeConcurrent, []uint32{indices.GraphicsFamilyIndex, indices.PresentFamilyIndex}
	}
	return vk.SharingModeExclusive, nil
}

func (b *builder) createSwapchain() error {
	device := b.context.Device

	// the surface may have changed since the device was picked
	support, err := b.driver.SwapchainSupport(device.PhysicalDevice, b.context.Surface)
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return fmt.Errorf("%w: surface reports no formats or present modes", core.ErrNoSuitableDevice)
	}
	device.SwapchainSupport = support
	capabilities := &support.Capabilities

	width, height := b.window.FramebufferSize()
	swapchain := &VulkanSwapchain{
		ImageFormat: chooseSwapSurfaceFormat(support.Formats),
		PresentMode: chooseSwapPresentMode(support.PresentModes),
		Extent:      chooseSwapExtent(capabilities, width, height),
	}
	imageCount := swapchainImageCount(capabilities)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          b.context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      swapchain.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	sharing, families := imageSharing(device.QueueFamilies)
	swapchainCreateInfo.ImageSharingMode = sharing
	swapchainCreateInfo.QueueFamilyIndexCount = uint32(len(families))
	swapchainCreateInfo.PQueueFamilyIndices = families

	handle, err := b.driver.CreateSwapchain(device.LogicalDevice, &swapchainCreateInfo)
	if err != nil {
		return err
	}
	swapchain.Handle = handle
	b.context.Swapchain = swapchain
	b.context.pushRelease("swapchain", func() {
		b.driver.DestroySwapchain(device.LogicalDevice, swapchain.Handle)
		b.context.Swapchain = nil
	})

	images, err := b.driver.SwapchainImages(device.LogicalDevice, handle)
	if err != nil {
		return err
	}
	swapchain.Images = images
	swapchain.ImageCount = uint32(len(images))

	core.LogInfo("Swapchain created: %dx%d, %d image(s), present mode %d.",
		swapchain.Extent.Width, swapchain.Extent.Height, swapchain.ImageCount, swapchain.PresentMode)
	return nil
}

func (b *builder) createImageViews() error {
	device := b.context.Device
	swapchain := b.context.Swapchain

	swapchain.Views = make([]vk.ImageView, 0, len(swapchain.Images))
	for i, image := range swapchain.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		view, err := b.driver.CreateImageView(device.LogicalDevice, &viewInfo)
		if err != nil {
			return fmt.Errorf("image view %d: %w", i, err)
		}
		swapchain.Views = append(swapchain.Views, view)
		b.context.pushRelease(fmt.Sprintf("image view %d", i), func() {
			b.driver.DestroyImageView(device.LogicalDevice, view)
		})
	}
	return nil
}
