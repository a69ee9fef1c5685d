//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and starts the editor with the default configuration file.
func (Run) Editor() error {
	mg.Deps(Build.Editor)
	fmt.Println("Run editor...")
	if _, err := executeCmd("bin/lovevk", withArgs("-config", "lovevk.toml"), withStream()); err != nil {
		return err
	}
	return nil
}
