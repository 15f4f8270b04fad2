//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

type Build mg.Namespace

var shaderDir = filepath.Join("assets", "shaders")

// GLSL sources and the SPIR-V modules the engine loads at startup.
var shaderStages = map[string]string{
	"shader.vert": "vert.spv",
	"shader.frag": "frag.spv",
}

// Compiles the GLSL shaders to SPIR-V with glslc. Up to date modules are
// skipped.
func (Build) Shaders() error {
	for source, output := range shaderStages {
		src := filepath.Join(shaderDir, source)
		dst := filepath.Join(shaderDir, output)

		stale, err := target.Path(dst, src)
		if err != nil {
			return err
		}
		if !stale {
			if mg.Verbose() {
				fmt.Printf("%s is up to date\n", dst)
			}
			continue
		}
		if err := sh.RunV(glslc(), src, "-o", dst); err != nil {
			return fmt.Errorf("compiling %s: %w", src, err)
		}
	}
	return nil
}

// Builds the binary without validation layers.
func (Build) Release() error {
	mg.Deps(Build.Shaders)
	return sh.RunV(mg.GoCmd(), "build", "-tags", "release", "-o", filepath.Join("bin", "hellotriangle"), ".")
}

// Builds the binary with validation layers enabled by default.
func (Build) Debug() error {
	mg.Deps(Build.Shaders)
	return sh.RunV(mg.GoCmd(), "build", "-o", filepath.Join("bin", "hellotriangle-debug"), ".")
}

// glslc honours GLSLC so a compiler outside PATH, e.g. from the Vulkan SDK,
// can be used.
func glslc() string {
	if path := os.Getenv("GLSLC"); path != "" {
		return path
	}
	return "glslc"
}
