package quadtree

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultPadding is the gap, in output pixels, between neighboring
// leaves and around the image border.
const DefaultPadding = 1

// DefaultFill is the color that shows through the padding.
var DefaultFill = color.NRGBA{A: 0xff}

// RenderOptions controls Render output.
type RenderOptions struct {
	// Scale multiplies the source dimensions. Values <= 0 mean 1.
	Scale float64
	// Padding insets every leaf. Negative values mean 0.
	Padding int
	// Fill is painted under the leaves.
	Fill color.Color
}

// Render paints the current leaves at the model's scale with the
// default padding and fill.
func (m *Model) Render() *image.NRGBA {
	return m.RenderWith(RenderOptions{
		Scale:   m.cfg.Scale,
		Padding: DefaultPadding,
		Fill:    DefaultFill,
	})
}

// RenderWith paints every current leaf as a solid rectangle of its
// color. The canvas is floor(W*s)+p by floor(H*s)+p and a leaf
// (l,t)-(r,b) covers [floor(l*s)+p, floor(r*s)) x [floor(t*s)+p, floor(b*s)),
// so leaves are separated by p pixels of fill and the image is framed by
// p pixels on every side. Render does not modify the model.
func (m *Model) RenderWith(opts RenderOptions) *image.NRGBA {
	s := opts.Scale
	if s <= 0 {
		s = 1
	}
	p := max(opts.Padding, 0)
	fill := opts.Fill
	if fill == nil {
		fill = DefaultFill
	}

	w := scaled(m.Width(), s) + p
	h := scaled(m.Height(), s) + p
	dst := imaging.New(w, h, fill)

	for _, q := range m.Leaves() {
		b := q.bounds
		// image.Rect would swap inverted corners; tiny leaves must vanish.
		r := image.Rectangle{
			Min: image.Pt(scaled(b.Min.X, s)+p, scaled(b.Min.Y, s)+p),
			Max: image.Pt(scaled(b.Max.X, s), scaled(b.Max.Y, s)),
		}
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, &image.Uniform{C: q.color.NRGBA()}, image.Point{}, draw.Src)
	}
	return dst
}

func scaled(v int, s float64) int {
	return int(math.Floor(float64(v) * s))
}
