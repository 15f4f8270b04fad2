package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	/** @brief The renderpass to associate with the pipeline. */
	Renderpass *VulkanRenderpass
	/** @brief An array of stages. */
	Stages []vk.PipelineShaderStageCreateInfo
	/** @brief The fixed viewport. */
	Viewport vk.Viewport
	/** @brief The fixed scissor. */
	Scissor vk.Rect2D
	/** @brief The face cull mode. */
	CullMode vk.CullModeFlagBits
	/** @brief Winding of front facing triangles. */
	FrontFace vk.FrontFace
}

// fullExtentPipelineConfig covers the whole swapchain extent with the
// viewport and scissor, culls back faces and treats clockwise triangles as
// front facing.
func fullExtentPipelineConfig(renderpass *VulkanRenderpass, extent vk.Extent2D, stages []vk.PipelineShaderStageCreateInfo) *VulkanPipelineConfig {
	return &VulkanPipelineConfig{
		Renderpass: renderpass,
		Stages:     stages,
		Viewport: vk.Viewport{
			X:        0,
			Y:        0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		CullMode:  vk.CullModeBackBit,
		FrontFace: vk.FrontFaceClockwise,
	}
}

// graphicsPipelineCreateInfo assembles the fixed function state: no vertex
// input, triangle lists, static viewport and scissor, single sampling and one
// color attachment written without blending.
func graphicsPipelineCreateInfo(config *VulkanPipelineConfig, layout vk.PipelineLayout) vk.GraphicsPipelineCreateInfo {
	// Vertex input: positions are generated in the vertex shader.
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   0,
		VertexAttributeDescriptionCount: 0,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport state
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{config.Viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{config.Scissor},
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(config.CullMode),
		FrontFace:               config.FrontFace,
		DepthBiasEnable:         vk.False,
		DepthBiasConstantFactor: 0.0,
		DepthBiasClamp:          0.0,
		DepthBiasSlopeFactor:    0.0,
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  nil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       nil,
		Layout:              layout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
}

func (b *builder) createGraphicsPipeline() error {
	device := b.context.Device

	vert, err := newShaderStage(b.driver, device.LogicalDevice, b.config.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	defer b.driver.DestroyShaderModule(device.LogicalDevice, vert.Handle)

	frag, err := newShaderStage(b.driver, device.LogicalDevice, b.config.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer b.driver.DestroyShaderModule(device.LogicalDevice, frag.Handle)

	// Pipeline layout: no descriptor sets, no push constants.
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	layout, err := b.driver.CreatePipelineLayout(device.LogicalDevice, &pipelineLayoutCreateInfo)
	if err != nil {
		return err
	}
	pipeline := &VulkanPipeline{PipelineLayout: layout}
	b.context.Pipeline = pipeline
	b.context.pushRelease("pipeline layout", func() {
		b.driver.DestroyPipelineLayout(device.LogicalDevice, pipeline.PipelineLayout)
		b.context.Pipeline = nil
	})

	config := fullExtentPipelineConfig(
		b.context.MainRenderpass,
		b.context.Swapchain.Extent,
		[]vk.PipelineShaderStageCreateInfo{vert.ShaderStageCreateInfo, frag.ShaderStageCreateInfo},
	)
	createInfo := graphicsPipelineCreateInfo(config, layout)
	handle, err := b.driver.CreateGraphicsPipeline(device.LogicalDevice, &createInfo)
	if err != nil {
		return err
	}
	pipeline.Handle = handle
	b.context.pushRelease("graphics pipeline", func() {
		b.driver.DestroyPipeline(device.LogicalDevice, pipeline.Handle)
		pipeline.Handle = vk.NullPipeline
	})
	core.LogDebug("Graphics pipeline created.")
	return nil
}
