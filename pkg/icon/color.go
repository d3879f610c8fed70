// Package icon turns rendered frames into icon files: color encoding,
// supersample reduction, the maskable safe-zone layout and an RGBA PNG
// writer.
package icon

import (
	"image/color"
	"math"

	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LinearToSRGB applies the sRGB transfer function to a linear component.
// Input is clamped to [0, 1].
func LinearToSRGB(c float64) float64 {
	c = clamp(c, 0, 1)
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// NRGBA converts a linear RGBA color to an 8-bit sRGB color. Alpha is not
// gamma encoded.
func NRGBA(r, g, b, a float64) color.NRGBA {
	return color.NRGBA{
		R: to8(LinearToSRGB(r)),
		G: to8(LinearToSRGB(g)),
		B: to8(LinearToSRGB(b)),
		A: to8(clamp(a, 0, 1)),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 255))
}
