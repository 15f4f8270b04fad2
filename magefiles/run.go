//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Compiles the shaders and opens the triangle window.
func (Run) Triangle() error {
	mg.Deps(Build.Shaders)
	return sh.RunV(mg.GoCmd(), "run", ".")
}

// Runs the unit tests. None of them need a GPU or a display server.
func Test() error {
	return sh.RunV(mg.GoCmd(), "test", "./engine/...")
}
