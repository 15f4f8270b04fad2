package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

type VulkanRenderpass struct {
	Handle vk.RenderPass
	// Format of the single color attachment.
	Format vk.Format
}

// renderpassCreateInfo describes one color attachment in the swapchain format,
// cleared on load and kept on store, handed to presentation at the end, and a
// single graphics subpass writing to it.
func renderpassCreateInfo(format vk.Format) vk.RenderPassCreateInfo {
	// Color attachment
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachmentReference,
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
}

func (b *builder) createRenderpass() error {
	device := b.context.Device
	format := b.context.Swapchain.ImageFormat.Format

	createInfo := renderpassCreateInfo(format)
	handle, err := b.driver.CreateRenderPass(device.LogicalDevice, &createInfo)
	if err != nil {
		return err
	}
	renderpass := &VulkanRenderpass{Handle: handle, Format: format}
	b.context.MainRenderpass = renderpass
	b.context.pushRelease("render pass", func() {
		b.driver.DestroyRenderPass(device.LogicalDevice, renderpass.Handle)
		b.context.MainRenderpass = nil
	})
	core.LogDebug("Render pass created.")
	return nil
}
