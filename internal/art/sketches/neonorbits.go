package sketches

import (
	"image/color"
	"math"

	"folio/internal/art"
)

const NeonOrbitsID = "neon-orbits"

// neonOrbits draws 80 rings orbiting the centre with hues cycling through
// the green-blue range.
type neonOrbits struct {
	t float64
}

func NewNeonOrbits(*art.Mount) art.Sketch {
	return &neonOrbits{}
}

func (s *neonOrbits) Setup(c *art.Canvas) {
	c.Clear(color.RGBA{R: 10, G: 10, B: 10, A: 255})
}

func (s *neonOrbits) Draw(c *art.Canvas) {
	c.Fade(color.RGBA{R: 10, G: 10, B: 10}, 51)
	cx, cy := float64(c.Width())/2, float64(c.Height())/2
	for i := 0; i < 80; i++ {
		fi := float64(i)
		angle := s.t*0.5 + fi*0.1
		radius := 10 + fi*3 + 10*math.Sin(s.t+fi*0.2)
		x := cx + radius*math.Cos(angle)
		y := cy + radius*math.Sin(angle)
		size := float64(6 + i%5)
		c.StrokeEllipse(x, y, size, size, art.HSB(float64(130+(i*3)%120), 100, 100, 60))
	}
	s.t += 0.02
}

// Resize needs no state change; positions derive from the canvas centre.
func (s *neonOrbits) Resize(*art.Canvas) {}

func (s *neonOrbits) Dispose() error {
	s.t = 0
	return nil
}
