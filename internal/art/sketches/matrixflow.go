package sketches

import (
	"hash/fnv"
	"image"
	"image/color"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"folio/internal/art"
)

const (
	MatrixFlowID = "matrix-flow"
	cellSize     = 16
)

var matrixGreen = color.RGBA{G: 255, B: 65, A: 255}

// matrixFlow drops columns of binary digits down the canvas.
type matrixFlow struct {
	rng   *rand.Rand
	drops []int
}

// NewMatrixFlow seeds the sketch from the mount id so a gallery renders the
// same frames on every run.
func NewMatrixFlow(m *art.Mount) art.Sketch {
	h := fnv.New64a()
	if m != nil {
		h.Write([]byte(m.ID))
	}
	return &matrixFlow{rng: rand.New(rand.NewSource(int64(h.Sum64())))}
}

func (s *matrixFlow) Setup(c *art.Canvas) {
	c.Clear(color.RGBA{R: 10, G: 10, B: 10, A: 255})
	s.reset(c)
}

func (s *matrixFlow) reset(c *art.Canvas) {
	s.drops = make([]int, c.Width()/cellSize)
	for i := range s.drops {
		s.drops[i] = 1
	}
}

func (s *matrixFlow) Draw(c *art.Canvas) {
	c.Fade(color.RGBA{R: 10, G: 10, B: 10}, 50)
	d := font.Drawer{
		Dst:  c.Image(),
		Src:  image.NewUniform(matrixGreen),
		Face: basicfont.Face7x13,
	}
	for i := range s.drops {
		glyph := string("01"[s.rng.Intn(2)])
		d.Dot = fixed.P(i*cellSize, s.drops[i]*cellSize)
		d.DrawString(glyph)
		if s.drops[i]*cellSize > c.Height() && s.rng.Float64() > 0.975 {
			s.drops[i] = 0
		}
		s.drops[i]++
	}
}

func (s *matrixFlow) Resize(c *art.Canvas) {
	s.reset(c)
}

func (s *matrixFlow) Dispose() error {
	s.drops = nil
	return nil
}
