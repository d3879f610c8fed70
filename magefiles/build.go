//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the kiln binary into bin/.
func (Build) Kiln() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/kiln", "."), withStream())
	return err
}

// Runs go vet over every package.
func (Build) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
