package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderpassCreateInfo(t *testing.T) {
	info := renderpassCreateInfo(vk.FormatR8g8b8a8Srgb)

	require.Len(t, info.PAttachments, 1)
	attachment := info.PAttachments[0]
	assert.Equal(t, vk.FormatR8g8b8a8Srgb, attachment.Format)
	assert.Equal(t, vk.SampleCount1Bit, attachment.Samples)
	assert.Equal(t, vk.AttachmentLoadOpClear, attachment.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, attachment.StoreOp)
	assert.Equal(t, vk.ImageLayoutUndefined, attachment.InitialLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, attachment.FinalLayout)

	require.Len(t, info.PSubpasses, 1)
	subpass := info.PSubpasses[0]
	assert.Equal(t, vk.PipelineBindPointGraphics, subpass.PipelineBindPoint)
	require.Len(t, subpass.PColorAttachments, 1)
	assert.Equal(t, uint32(0), subpass.PColorAttachments[0].Attachment)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, subpass.PColorAttachments[0].Layout)
}

func TestGraphicsPipelineCreateInfo(t *testing.T) {
	extent := vk.Extent2D{Width: 800, Height: 600}
	stages := []vk.PipelineShaderStageCreateInfo{
		{Stage: vk.ShaderStageVertexBit},
		{Stage: vk.ShaderStageFragmentBit},
	}
	config := fullExtentPipelineConfig(&VulkanRenderpass{}, extent, stages)
	info := graphicsPipelineCreateInfo(config, vk.NullPipelineLayout)

	assert.Equal(t, uint32(2), info.StageCount)
	assert.Equal(t, uint32(0), info.PVertexInputState.VertexBindingDescriptionCount)
	assert.Equal(t, uint32(0), info.PVertexInputState.VertexAttributeDescriptionCount)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, info.PInputAssemblyState.Topology)

	require.Len(t, info.PViewportState.PViewports, 1)
	viewport := info.PViewportState.PViewports[0]
	assert.Equal(t, float32(800), viewport.Width)
	assert.Equal(t, float32(600), viewport.Height)
	assert.Equal(t, float32(0), viewport.MinDepth)
	assert.Equal(t, float32(1), viewport.MaxDepth)
	require.Len(t, info.PViewportState.PScissors, 1)
	assert.Equal(t, extent, info.PViewportState.PScissors[0].Extent)

	raster := info.PRasterizationState
	assert.Equal(t, vk.PolygonModeFill, raster.PolygonMode)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), raster.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, raster.FrontFace)
	assert.Equal(t, float32(1), raster.LineWidth)

	assert.Equal(t, vk.SampleCount1Bit, info.PMultisampleState.RasterizationSamples)
	require.Len(t, info.PColorBlendState.PAttachments, 1)
	assert.Equal(t, vk.Bool32(vk.False), info.PColorBlendState.PAttachments[0].BlendEnable)
	assert.Nil(t, info.PDepthStencilState)
	assert.Nil(t, info.PDynamicState)
	assert.Equal(t, int32(-1), info.BasePipelineIndex)
}
