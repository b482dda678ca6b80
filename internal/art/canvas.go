package art

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Canvas is the raster a sketch draws on.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a black canvas of w x h pixels.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	c.Clear(color.RGBA{A: 255})
	return c
}

func (c *Canvas) Width() int  { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Image exposes the backing image for drawers such as font.Drawer.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Snapshot returns a copy of the current frame.
func (c *Canvas) Snapshot() *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// Resize changes the canvas size, scaling the current frame into it.
func (c *Canvas) Resize(w, h int) {
	if w == c.Width() && h == c.Height() {
		return
	}
	next := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(next, next.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	c.img = next
}

// Clear fills the canvas with col.
func (c *Canvas) Clear(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// Fade paints col at the given alpha over the whole canvas, leaving trails
// of earlier frames.
func (c *Canvas) Fade(col color.RGBA, alpha uint8) {
	overlay := color.NRGBA{R: col.R, G: col.G, B: col.B, A: alpha}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(overlay), image.Point{}, draw.Over)
}

// Blend composites col (non-premultiplied alpha) onto the pixel at x, y.
func (c *Canvas) Blend(x, y int, col color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(c.img.Bounds()) {
		return
	}
	dst := c.img.RGBAAt(x, y)
	a := uint32(col.A)
	mix := func(s uint8, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	c.img.SetRGBA(x, y, color.RGBA{
		R: mix(col.R, dst.R),
		G: mix(col.G, dst.G),
		B: mix(col.B, dst.B),
		A: 255,
	})
}

// StrokeEllipse draws the one pixel wide, anti-aliased outline of an
// ellipse centred on cx, cy.
func (c *Canvas) StrokeEllipse(cx, cy, w, h float64, col color.NRGBA) {
	rx, ry := w/2, h/2
	steps := int(2 * math.Pi * math.Max(rx, ry))
	if steps < 16 {
		steps = 16
	}
	z := vector.NewRasterizer(c.Width(), c.Height())
	// The inner edge runs the other way round so the ring's inside
	// cancels out.
	ellipsePath(z, cx, cy, rx+0.5, ry+0.5, steps, 1)
	if rx > 0.5 && ry > 0.5 {
		ellipsePath(z, cx, cy, rx-0.5, ry-0.5, steps, -1)
	}
	z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

func ellipsePath(z *vector.Rasterizer, cx, cy, rx, ry float64, steps int, dir float64) {
	for i := 0; i <= steps; i++ {
		a := dir * 2 * math.Pi * float64(i) / float64(steps)
		x, y := float32(cx+rx*math.Cos(a)), float32(cy+ry*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
			continue
		}
		z.LineTo(x, y)
	}
	z.ClosePath()
}

// HSB converts hue (0-360), saturation and brightness (0-100) and alpha
// (0-100) to a color.
func HSB(h, s, b, alpha float64) color.NRGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s, b = s/100, b/100
	chroma := b * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := b - chroma

	var r, g, bl float64
	switch {
	case h < 60:
		r, g, bl = chroma, x, 0
	case h < 120:
		r, g, bl = x, chroma, 0
	case h < 180:
		r, g, bl = 0, chroma, x
	case h < 240:
		r, g, bl = 0, x, chroma
	case h < 300:
		r, g, bl = x, 0, chroma
	default:
		r, g, bl = chroma, 0, x
	}
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(bl), A: uint8(math.Round(alpha / 100 * 255))}
}
