package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

type VulkanFramebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
	Width       uint32
	Height      uint32
}

func (b *builder) createFramebuffers() error {
	device := b.context.Device
	swapchain := b.context.Swapchain
	renderpass := b.context.MainRenderpass

	b.context.Framebuffers = make([]*VulkanFramebuffer, 0, len(swapchain.Views))
	for i, view := range swapchain.Views {
		fb := &VulkanFramebuffer{
			Attachments: []vk.ImageView{view},
			Renderpass:  renderpass,
			Width:       swapchain.Extent.Width,
			Height:      swapchain.Extent.Height,
		}

		// Creation info
		framebufferCreateInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderpass.Handle,
			AttachmentCount: uint32(len(fb.Attachments)),
			PAttachments:    fb.Attachments,
			Width:           fb.Width,
			Height:          fb.Height,
			Layers:          1,
		}

		handle, err := b.driver.CreateFramebuffer(device.LogicalDevice, &framebufferCreateInfo)
		if err != nil {
			return fmt.Errorf("framebuffer %d: %w", i, err)
		}
		fb.Handle = handle
		b.context.Framebuffers = append(b.context.Framebuffers, fb)
		b.context.pushRelease(fmt.Sprintf("framebuffer %d", i), func() {
			b.driver.DestroyFramebuffer(device.LogicalDevice, fb.Handle)
			fb.Handle = vk.NullFramebuffer
		})
	}
	core.LogDebug("%d framebuffer(s) created.", len(b.context.Framebuffers))
	return nil
}
