package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Entry point of every stage.
const shaderEntryPoint = "main"

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The shader module creation info. */
	CreateInfo vk.ShaderModuleCreateInfo
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// newShaderStage wraps SPIR-V words in a shader module for the given stage.
// The caller owns the module and destroys it once the pipeline is built.
func newShaderStage(driver Driver, device vk.Device, code []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("empty shader code for stage %d", stage)
	}
	s := &VulkanShaderStage{
		CreateInfo: vk.ShaderModuleCreateInfo{
			SType: vk.StructureTypeShaderModuleCreateInfo,
			// size in bytes
			CodeSize: uint64(len(code) * 4),
			PCode:    code,
		},
	}

	handle, err := driver.CreateShaderModule(device, &s.CreateInfo)
	if err != nil {
		return nil, err
	}
	s.Handle = handle

	// Shader stage info
	s.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: handle,
		PName:  VulkanSafeString(shaderEntryPoint),
	}
	return s, nil
}
