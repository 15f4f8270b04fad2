package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateDeviceSuitability(t *testing.T) {
	tests := []struct {
		name       string
		deviceType vk.PhysicalDeviceType
		maxDim     uint32
		geometry   vk.Bool32
		want       uint32
	}{
		{"discrete", vk.PhysicalDeviceTypeDiscreteGpu, 16384, vk.True, 17384},
		{"integrated", vk.PhysicalDeviceTypeIntegratedGpu, 8192, vk.True, 8192},
		{"no geometry shader", vk.PhysicalDeviceTypeDiscreteGpu, 16384, vk.False, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := vk.PhysicalDeviceProperties{
				DeviceType: tt.deviceType,
				Limits:     vk.PhysicalDeviceLimits{MaxImageDimension2D: tt.maxDim},
			}
			features := vk.PhysicalDeviceFeatures{GeometryShader: tt.geometry}
			assert.Equal(t, tt.want, rateDeviceSuitability(&props, &features))
		})
	}
}

func TestPickHighestScore(t *testing.T) {
	assert.Equal(t, -1, pickHighestScore(nil))
	assert.Equal(t, 0, pickHighestScore([]uint32{0}))
	assert.Equal(t, 1, pickHighestScore([]uint32{8192, 17384, 4096}))
	// ties keep the first
	assert.Equal(t, 0, pickHighestScore([]uint32{500, 500}))
}

func presentOn(indices ...uint32) func(uint32) (bool, error) {
	return func(index uint32) (bool, error) {
		for _, i := range indices {
			if i == index {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestFindQueueFamilies(t *testing.T) {
	graphics := vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 1}
	transfer := vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1}

	t.Run("shared family", func(t *testing.T) {
		indices, err := findQueueFamilies([]vk.QueueFamilyProperties{graphics}, presentOn(0))
		require.NoError(t, err)
		assert.True(t, indices.Complete())
		assert.Equal(t, []uint32{0}, indices.Unique())
	})

	t.Run("separate families", func(t *testing.T) {
		indices, err := findQueueFamilies([]vk.QueueFamilyProperties{transfer, graphics, transfer}, presentOn(2))
		require.NoError(t, err)
		assert.Equal(t, uint32(1), indices.GraphicsFamilyIndex)
		assert.Equal(t, uint32(2), indices.PresentFamilyIndex)
		assert.Equal(t, []uint32{1, 2}, indices.Unique())
	})

	t.Run("first match wins", func(t *testing.T) {
		indices, err := findQueueFamilies([]vk.QueueFamilyProperties{graphics, graphics}, presentOn(0, 1))
		require.NoError(t, err)
		assert.Equal(t, uint32(0), indices.GraphicsFamilyIndex)
		assert.Equal(t, uint32(0), indices.PresentFamilyIndex)
	})

	t.Run("empty family is skipped", func(t *testing.T) {
		empty := vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit)}
		indices, err := findQueueFamilies([]vk.QueueFamilyProperties{empty, graphics}, presentOn(0))
		require.NoError(t, err)
		assert.Equal(t, uint32(1), indices.GraphicsFamilyIndex)
	})

	t.Run("no present", func(t *testing.T) {
		_, err := findQueueFamilies([]vk.QueueFamilyProperties{graphics}, presentOn())
		assert.ErrorIs(t, err, core.ErrQueueFamiliesNotFound)
	})

	t.Run("no graphics", func(t *testing.T) {
		_, err := findQueueFamilies([]vk.QueueFamilyProperties{transfer}, presentOn(0))
		assert.ErrorIs(t, err, core.ErrQueueFamiliesNotFound)
	})

	t.Run("query error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := findQueueFamilies([]vk.QueueFamilyProperties{graphics}, func(uint32) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}

func TestDeviceTypeString(t *testing.T) {
	assert.Equal(t, "Discrete", deviceTypeString(vk.PhysicalDeviceTypeDiscreteGpu))
	assert.Equal(t, "Integrated", deviceTypeString(vk.PhysicalDeviceTypeIntegratedGpu))
	assert.Equal(t, "CPU", deviceTypeString(vk.PhysicalDeviceTypeCpu))
	assert.Equal(t, "Unknown", deviceTypeString(vk.PhysicalDeviceTypeOther))
}
