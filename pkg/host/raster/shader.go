package raster

import (
	"math"

	"github.com/chazu/kiln/pkg/icon"
	"github.com/chazu/kiln/pkg/scene"
	"github.com/chazu/kiln/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
)

// dielectricF0 is the normal-incidence reflectance of non-metals.
const dielectricF0 = 0.04

// sun is a directional light: toward points from the surface to the light,
// irradiance is energy times color.
type sun struct {
	toward     fauxgl.Vector
	irradiance fauxgl.Color
}

// sunLights collects the scene's sun lights. Like a camera, an unrotated sun
// points down its local -Z axis; its location does not matter.
func sunLights(s *scene.Scene) []sun {
	var suns []sun
	for _, o := range s.Lights() {
		ld := o.Light()
		if ld.Type != scene.LightSun {
			continue
		}
		dir := tessellate.Rotation(o).MulPosition(v3.Vec{Z: 1})
		suns = append(suns, sun{
			toward:     toV(dir.Normalize()),
			irradiance: linear(ld.Color).MulScalar(ld.Energy),
		})
	}
	return suns
}

// sunShader shades in linear light with a Lambert diffuse term, a
// normalized Blinn-Phong specular term derived from roughness, and uniform
// ambient light from the world background. Output is sRGB encoded.
type sunShader struct {
	matrix   fauxgl.Matrix
	camera   fauxgl.Vector
	suns     []sun
	diffuse  fauxgl.Color
	f0       fauxgl.Color
	ambient  fauxgl.Color
	power    float64
	specNorm float64
	alpha    float64
}

func newSunShader(matrix fauxgl.Matrix, camera v3.Vec, suns []sun, m scene.Material, world scene.Color) *sunShader {
	base := linear(m.BaseColor)
	metallic := clamp01(m.Metallic)
	f0 := fauxgl.Color{R: dielectricF0, G: dielectricF0, B: dielectricF0, A: 1}.
		MulScalar(1 - metallic).Add(base.MulScalar(metallic))
	diffuse := base.MulScalar(1 - metallic)

	// Roughness to Blinn-Phong exponent via alpha = roughness^2.
	a := math.Max(clamp01(m.Roughness), 0.05)
	a *= a
	power := 2/(a*a) - 2

	return &sunShader{
		matrix:   matrix,
		camera:   toV(camera),
		suns:     suns,
		diffuse:  diffuse,
		f0:       f0,
		ambient:  diffuse.Mul(linear(world)),
		power:    power,
		specNorm: (power + 8) / (8 * math.Pi),
		alpha:    m.BaseColor.A,
	}
}

func (sh *sunShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = sh.matrix.MulPositionW(v.Position)
	return v
}

func (sh *sunShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	n := v.Normal.Normalize()
	view := sh.camera.Sub(v.Position).Normalize()
	// Two-sided: open meshes show their inside faces.
	if n.Dot(view) < 0 {
		n = n.Negate()
	}

	c := sh.ambient
	for _, l := range sh.suns {
		cos := n.Dot(l.toward)
		if cos <= 0 {
			continue
		}
		c = c.Add(sh.diffuse.Mul(l.irradiance).MulScalar(cos / math.Pi))

		half := l.toward.Add(view).Normalize()
		specular := math.Pow(math.Max(n.Dot(half), 0), sh.power) * sh.specNorm * cos
		c = c.Add(sh.f0.Mul(l.irradiance).MulScalar(specular))
	}
	return encodeRGB(c, sh.alpha)
}

// encode converts a linear scene color to an sRGB fauxgl color.
func encode(c scene.Color) fauxgl.Color {
	return encodeRGB(linear(c), c.A)
}

func encodeRGB(c fauxgl.Color, alpha float64) fauxgl.Color {
	return fauxgl.Color{
		R: icon.LinearToSRGB(c.R),
		G: icon.LinearToSRGB(c.G),
		B: icon.LinearToSRGB(c.B),
		A: clamp01(alpha),
	}
}

func linear(c scene.Color) fauxgl.Color {
	return fauxgl.Color{R: c.R, G: c.G, B: c.B, A: 1}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
