package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "HelloTriangle", cfg.Window.Title)
	assert.Equal(t, uint32(512), cfg.Window.Width)
	assert.Equal(t, uint32(512), cfg.Window.Height)
	assert.False(t, cfg.Window.Resizable)
	assert.Equal(t, "Hello Triangle", cfg.Vulkan.ApplicationName)
	assert.Equal(t, ValidationDefault, cfg.Vulkan.Validation)
	assert.Equal(t, []string{"VK_LAYER_KHRONOS_validation"}, cfg.Vulkan.ValidationLayers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFilesUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "anima.toml", `
[window]
title = "Triangle"
width = 800
height = 600

[vulkan]
validation = true
require_validation = true

[assets]
shader_dir = "build/shaders"

[log]
level = "debug"
`)

	cfg, err := LoadConfig(path, "")
	require.NoError(t, err)

	assert.Equal(t, "Triangle", cfg.Window.Title)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.True(t, cfg.Vulkan.Validation)
	assert.True(t, cfg.Vulkan.RequireValidation)
	assert.Equal(t, "build/shaders", cfg.Assets.ShaderDir)
	assert.Equal(t, "vert.spv", cfg.Assets.VertexShader)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "anima.toml", "[window]\nfullscreen = true\n")

	_, err := LoadConfig(path, "")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigDotenvAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "anima.toml", "[window]\nwidth = 640\n")
	envPath := writeFile(t, dir, ".env", "ANIMA_WINDOW_WIDTH=1024\nANIMA_WINDOW_HEIGHT=768\nANIMA_VALIDATION=false\n")

	t.Setenv(EnvWindowHeight, "900")

	cfg, err := LoadConfig(tomlPath, envPath)
	require.NoError(t, err)

	// dotenv beats the file, the process environment beats dotenv
	assert.Equal(t, uint32(1024), cfg.Window.Width)
	assert.Equal(t, uint32(900), cfg.Window.Height)
	assert.False(t, cfg.Vulkan.Validation)
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric width", EnvWindowWidth, "wide"},
		{"zero height", EnvWindowHeight, "0"},
		{"bad bool", EnvValidation, "maybe"},
		{"bad level", EnvLogLevel, "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig("", "")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"no vertex shader", func(c *Config) { c.Assets.VertexShader = "" }},
		{"validation without layers", func(c *Config) {
			c.Vulkan.Validation = true
			c.Vulkan.ValidationLayers = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
