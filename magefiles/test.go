//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests of every package that does not need a Vulkan device.
func (Test) Core() error {
	_, err := executeCmd("go", withArgs("test", "-race",
		"./engine/containers/...",
		"./engine/core/...",
		"./engine/renderer/frame/...",
		"./engine/renderer/resource/...",
		"./engine/assets/...",
		"./engine/systems/...",
	), withStream())
	return err
}

// Runs every test, including the Vulkan backend package.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}
