//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the shaders and opens the grid in a window.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "--config", "config.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders a fixed number of frames without a window.
func (Run) Headless() error {
	fmt.Println("Run engine headless...")
	if _, err := executeCmd("go", withArgs("run", ".", "--config", "config.toml", "--headless", "--frames", "120"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the test suite.
func Test() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
