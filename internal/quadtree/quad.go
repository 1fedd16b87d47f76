// Package quadtree approximates an image by recursively splitting it
// into rectangles of flat average color, always splitting the rectangle
// whose approximation is currently worst.
//
// Regions use the image.Rectangle convention: Min is inclusive, Max is
// exclusive, so width = Max.X-Min.X and height = Max.Y-Min.Y.
package quadtree

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// MinLeafSize is the smallest width and height a quad may have and still
// be split.
const MinLeafSize = 4

// RGB is a color with float64 channels in [0, 255].
type RGB struct {
	R, G, B float64
}

// NRGBA rounds the channels to the nearest 8-bit value, fully opaque.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: channel8(c.R), G: channel8(c.G), B: channel8(c.B), A: 0xff}
}

func channel8(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Quad is one node of the decomposition tree: a rectangle of the source
// image with its average color and approximation error. Color, error and
// area are fixed at construction. A quad has either no children (it is a
// leaf) or exactly four, ordered top-left, top-right, bottom-left,
// bottom-right.
type Quad struct {
	src      *image.NRGBA // shared by the whole tree
	bounds   image.Rectangle
	depth    int
	color    RGB
	err      float64
	area     int
	children []*Quad
}

// newQuad analyzes bounds of src. Any rectangle is accepted, including
// empty ones, which get zero color and zero error.
func newQuad(src *image.NRGBA, bounds image.Rectangle, depth int) *Quad {
	hr, hg, hb := histograms(src, bounds)
	r, er := ChannelStats(&hr)
	g, eg := ChannelStats(&hg)
	b, eb := ChannelStats(&hb)
	return &Quad{
		src:    src,
		bounds: bounds,
		depth:  depth,
		color:  RGB{R: r, G: g, B: b},
		err:    (er + eg + eb) / 3,
		area:   bounds.Dx() * bounds.Dy(),
	}
}

// Bounds returns the region of the source image q covers.
func (q *Quad) Bounds() image.Rectangle { return q.bounds }

// Depth returns the distance from the root, which has depth 0.
func (q *Quad) Depth() int { return q.depth }

// Color returns the per-channel mean over Bounds.
func (q *Quad) Color() RGB { return q.color }

// Area returns the pixel count of Bounds.
func (q *Quad) Area() int { return q.area }

// Error is the mean over R, G and B of the squared deviation of the
// region's pixels from Color.
func (q *Quad) Error() float64 { return q.err }

// Children returns the four children, or nil for a leaf.
func (q *Quad) Children() []*Quad { return q.children }

// IsLeaf reports whether q has not been split.
func (q *Quad) IsLeaf() bool { return len(q.children) == 0 }

// IsMinSize reports whether q is too small to split.
func (q *Quad) IsMinSize() bool {
	return q.bounds.Dx() < MinLeafSize || q.bounds.Dy() < MinLeafSize
}

// weightedError is the quad's contribution to the model error.
func (q *Quad) weightedError() float64 {
	return q.err * float64(q.area)
}

// priority ranks quads for splitting. Area is damped by the fourth root
// so small regions with high error still get their turn.
func (q *Quad) priority() float64 {
	return q.err * math.Pow(float64(q.area), 0.25)
}

// childBounds returns the four sub-rectangles split at the floor
// midpoint of each axis.
func (q *Quad) childBounds() [4]image.Rectangle {
	b := q.bounds
	h := b.Min.X + b.Dx()/2
	v := b.Min.Y + b.Dy()/2
	return [4]image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, h, v),
		image.Rect(h, b.Min.Y, b.Max.X, v),
		image.Rect(b.Min.X, v, h, b.Max.Y),
		image.Rect(h, v, b.Max.X, b.Max.Y),
	}
}

// Split divides q into four children analyzed against the image q was
// built from and returns them. It returns nil without changing q when q
// is min-size or already split.
func (q *Quad) Split() []*Quad {
	return q.split(false)
}

func (q *Quad) split(concurrent bool) []*Quad {
	if q.IsMinSize() || !q.IsLeaf() {
		return nil
	}
	rects := q.childBounds()
	children := make([]*Quad, 4)
	if concurrent {
		var wg sync.WaitGroup
		for i, r := range rects {
			wg.Add(1)
			go func(idx int, r image.Rectangle) {
				defer wg.Done()
				children[idx] = newQuad(q.src, r, q.depth+1)
			}(i, r)
		}
		wg.Wait()
	} else {
		for i, r := range rects {
			children[i] = newQuad(q.src, r, q.depth+1)
		}
	}
	q.children = children
	return children
}

// Leaves returns every leaf reachable from q in pre-order.
func (q *Quad) Leaves() []*Quad {
	var out []*Quad
	q.collectLeaves(&out)
	return out
}

func (q *Quad) collectLeaves(out *[]*Quad) {
	if q.IsLeaf() {
		*out = append(*out, q)
		return
	}
	for _, c := range q.children {
		c.collectLeaves(out)
	}
}
