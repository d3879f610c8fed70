package host

import (
	"fmt"
	"image"

	"github.com/chazu/kiln/pkg/icon"
	"github.com/chazu/kiln/pkg/logging"
	"github.com/chazu/kiln/pkg/scene"
)

// BackgroundColor returns the linear world background components.
func BackgroundColor(s *scene.Scene) (r, g, b, a float64) {
	bg := s.World.Background
	return bg.R, bg.G, bg.B, bg.A
}

// WriteIcon writes a rendered frame to s.Render.FilePath. Maskable renders
// are first laid out inside the safe zone; content that still falls
// outside it is reported as a warning.
func WriteIcon(s *scene.Scene, img image.Image) error {
	rs := s.Render
	out := img
	if rs.Maskable {
		bg := icon.NRGBA(BackgroundColor(s))
		masked := icon.Maskable(img, bg)
		zone, err := icon.NewSafeZone(rs.ResolutionX, rs.ResolutionY)
		if err != nil {
			return err
		}
		if n := zone.Outside(masked, bg); n > 0 {
			logging.LogWarn("%s: %d pixels outside the maskable safe zone", rs.FilePath, n)
		}
		out = masked
	}
	if err := icon.WritePNG(rs.FilePath, out); err != nil {
		return fmt.Errorf("host: write %s: %w", rs.FilePath, err)
	}
	return nil
}
