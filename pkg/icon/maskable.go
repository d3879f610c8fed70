package icon

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"golang.org/x/image/draw"
)

// SafeZoneRatio is the diameter of the maskable safe-zone circle relative to
// the icon's shorter side. Platforms may crop anything outside it.
const SafeZoneRatio = 0.8

// backgroundTolerance is the per-channel distance below which a pixel is
// considered background when measuring content coverage.
const backgroundTolerance = 8

// Downscale resamples src to w×h with a Catmull-Rom filter.
func Downscale(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// Maskable lays img out as a maskable icon of the same size: the whole frame
// is shrunk by SafeZoneRatio, centered, and the margin is filled with bg so
// the result is full-bleed.
func Maskable(img image.Image, bg color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Rect, &image.Uniform{C: bg}, image.Point{}, draw.Src)

	iw := int(math.Round(float64(w) * SafeZoneRatio))
	ih := int(math.Round(float64(h) * SafeZoneRatio))
	x0, y0 := (w-iw)/2, (h-ih)/2
	inner := image.Rect(x0, y0, x0+iw, y0+ih)
	draw.CatmullRom.Scale(dst, inner, img, b, draw.Over, nil)
	return dst
}

// SafeZone measures how much of an icon's content lies outside the maskable
// safe-zone circle. Content is any pixel that differs from bg.
type SafeZone struct {
	circle sdf.SDF2
	cx, cy float64
}

// NewSafeZone returns the safe zone for a w×h icon.
func NewSafeZone(w, h int) (*SafeZone, error) {
	r := float64(min(w, h)) * SafeZoneRatio / 2
	c, err := sdf.Circle2D(r)
	if err != nil {
		return nil, fmt.Errorf("icon: safe zone: %w", err)
	}
	return &SafeZone{circle: c, cx: float64(w) / 2, cy: float64(h) / 2}, nil
}

// Contains reports whether the pixel at (x, y) has its center inside the
// safe zone.
func (z *SafeZone) Contains(x, y int) bool {
	p := v2.Vec{X: float64(x) + 0.5 - z.cx, Y: float64(y) + 0.5 - z.cy}
	return z.circle.Evaluate(p) <= 0
}

// Outside counts content pixels of img that fall outside the safe zone.
func (z *SafeZone) Outside(img image.Image, bg color.NRGBA) int {
	m := ToNRGBA(img)
	n := 0
	for y := 0; y < m.Rect.Dy(); y++ {
		for x := 0; x < m.Rect.Dx(); x++ {
			if !z.Contains(x, y) && !isBackground(m.NRGBAAt(x, y), bg) {
				n++
			}
		}
	}
	return n
}

func isBackground(c, bg color.NRGBA) bool {
	return absDiff(c.R, bg.R) <= backgroundTolerance &&
		absDiff(c.G, bg.G) <= backgroundTolerance &&
		absDiff(c.B, bg.B) <= backgroundTolerance &&
		absDiff(c.A, bg.A) <= backgroundTolerance
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
