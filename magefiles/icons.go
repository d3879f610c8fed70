//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Icons mg.Namespace

// Renders the teapot icon set with the software rasterizer. Set KILN_DIR to
// the directory holding teapot.obj.
func (Icons) Raster() error {
	mg.Deps(Build.Kiln)
	return renderIcons("raster")
}

// Renders the teapot icon set through Blender.
func (Icons) Blender() error {
	mg.Deps(Build.Kiln)
	return renderIcons("blender")
}

func renderIcons(backend string) error {
	dir := os.Getenv("KILN_DIR")
	if dir == "" {
		dir = "."
	}
	fmt.Printf("Rendering icons in %s with the %s backend...\n", dir, backend)
	bin, err := absPath("bin/kiln")
	if err != nil {
		return err
	}
	_, err = executeCmd(bin, withArgs("render", "--backend", backend), withDir(dir), withStream())
	return err
}
