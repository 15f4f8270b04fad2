//go:build release

package core

const ValidationDefault = false
