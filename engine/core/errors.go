package core

import (
	"errors"
)

var (
	// ErrCapabilityUnavailable is returned when a required layer or
	// extension is not offered by the loader.
	ErrCapabilityUnavailable = errors.New("required capability unavailable")
	ErrNoDevices             = errors.New("no devices with Vulkan support were found")
	ErrNoSuitableDevice      = errors.New("no physical device meets the requirements")
	ErrQueueFamiliesNotFound = errors.New("required queue families not found")
	ErrInvalidShader         = errors.New("invalid SPIR-V bytecode")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrNotInitialized        = errors.New("not initialized")
)
