package main

import (
	_ "embed"
)

// defaultScript renders the four teapot icons from teapot.obj in the
// working directory.
//
//go:embed examples/teapot.kiln
var defaultScript string

// defaultScriptName labels the embedded script in logs.
const defaultScriptName = "teapot.kiln (built in)"
