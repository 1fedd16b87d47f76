package quadtree

import (
	"context"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Config controls a Model.
type Config struct {
	// Scale is the output-resolution multiplier used by Render.
	// Values <= 0 mean 1.
	Scale float64

	// Concurrent computes the statistics of the four children of a split
	// on separate goroutines. Frontier updates stay sequential.
	Concurrent bool
}

// Model owns the decomposition tree and the frontier of leaves that are
// candidates for the next split. It is not safe for concurrent use.
type Model struct {
	src   *image.NRGBA
	cfg   Config
	root  *Quad
	front frontier
	seq   uint64
	steps int

	// totalWeightedError is the sum of Error*Area over the frontier.
	totalWeightedError float64
}

// New analyzes img as a single root quad and places it on the frontier.
// img is copied, so later changes to it do not affect the model.
func New(img image.Image, cfg Config) *Model {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	src := imaging.Clone(img)
	m := &Model{
		src: src,
		cfg: cfg,
	}
	m.root = newQuad(src, src.Rect, 0)
	m.Push(m.root)

	Logger().Info("quadtree: model created",
		slog.Int("width", m.Width()),
		slog.Int("height", m.Height()),
		slog.Float64("error", m.root.err),
	)
	return m
}

// Root returns the root quad covering the whole image.
func (m *Model) Root() *Quad { return m.root }

func (m *Model) Width() int     { return m.src.Rect.Dx() }
func (m *Model) Height() int    { return m.src.Rect.Dy() }
func (m *Model) Scale() float64 { return m.cfg.Scale }

// Steps returns the number of successful splits so far.
func (m *Model) Steps() int { return m.steps }

// FrontierLen returns the number of quads on the frontier.
func (m *Model) FrontierLen() int { return m.front.Len() }

// TotalWeightedError returns the sum of Error*Area over the frontier.
func (m *Model) TotalWeightedError() float64 { return m.totalWeightedError }

// AverageError returns the model error per source pixel. Lower is
// better. It is 0 for an empty image.
func (m *Model) AverageError() float64 {
	n := m.Width() * m.Height()
	if n == 0 {
		return 0
	}
	return m.totalWeightedError / float64(n)
}

// Push places q on the frontier and adds its weighted error to the
// model total.
func (m *Model) Push(q *Quad) {
	m.seq++
	m.front.push(entry{
		quad:       q,
		priority:   q.priority(),
		splittable: !q.IsMinSize(),
		seq:        m.seq,
	})
	m.totalWeightedError += q.weightedError()
}

// Pop removes the highest-priority quad from the frontier and subtracts
// its weighted error from the model total. It returns nil if the
// frontier is empty.
func (m *Model) Pop() *Quad {
	if m.front.Len() == 0 {
		return nil
	}
	q := m.front.pop().quad
	m.totalWeightedError -= q.weightedError()
	return q
}

// Step splits the highest-priority quad and pushes its four children.
// It reports false, leaving the model unchanged, when every quad on the
// frontier is min-size.
func (m *Model) Step() bool {
	if m.front.Len() == 0 || !m.front.top().splittable {
		Logger().Debug("quadtree: nothing left to split", slog.Int("steps", m.steps))
		return false
	}
	q := m.Pop()
	children := q.split(m.cfg.Concurrent)
	for _, c := range children {
		m.Push(c)
	}
	m.steps++

	if l := Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("quadtree: split",
			slog.Int("step", m.steps),
			slog.String("bounds", q.bounds.String()),
			slog.Int("depth", q.depth),
			slog.Float64("error", q.err),
			slog.Float64("avg_error", m.AverageError()),
		)
	}
	return true
}

// Leaves returns the current leaves of the tree in pre-order.
func (m *Model) Leaves() []*Quad { return m.root.Leaves() }
