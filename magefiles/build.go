//go:build mage

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the gridmesh binary into bin/.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/gridmesh", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Validates every GLSL file under assets/shaders with glslangValidator.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if _, err := exec.LookPath("glslangValidator"); err != nil {
		fmt.Println("glslangValidator not found, skipping shader validation")
		return nil
	}
	files, err := shaderFiles()
	if err != nil {
		return err
	}
	for _, file := range files {
		if _, err := executeCmd("glslangValidator", withArgs(file), withStream()); err != nil {
			return err
		}
	}
	return nil
}
