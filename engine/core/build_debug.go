//go:build !release

package core

// ValidationDefault enables the Vulkan validation layers in development builds.
const ValidationDefault = true
