package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/justincosentino/quart/internal/encoder"
	"github.com/justincosentino/quart/internal/manifest"
	"github.com/justincosentino/quart/internal/profile"
	"github.com/justincosentino/quart/internal/quadtree"
)

// Config holds all parameters for a render pipeline run.
type Config struct {
	Input      string // image file or directory
	OutputDir  string
	Iterations int
	Scale      float64
	Profile    profile.Profile
	Frames     bool   // assemble an animation of the snapshots
	KeepFrames bool   // archive the snapshots
	Animator   string // animator name, "auto" by default
	MaxDim     int    // downscale sources larger than this; 0 keeps them as is
	Workers    int
	Concurrent bool // split children on separate goroutines
	Logger     *slog.Logger
}

// Pipeline orchestrates decomposition runs.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
	}
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Run executes the full pipeline and returns the manifest. A batch only
// fails when every source fails.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	log := p.cfg.Logger
	if p.cfg.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", p.cfg.Iterations)
	}
	if p.cfg.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", p.cfg.Scale)
	}
	if err := p.cfg.Profile.Validate(); err != nil {
		return nil, err
	}

	j, err := p.prepare()
	if err != nil {
		return nil, err
	}
	log.Debug(p.registry.String())

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.Input)
	}
	log.Info("found images", "count", len(sources))

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// Step 2: Process images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			log.Debug("processing", "source", s.Key)
			results[idx] = processImage(ctx, s, j)

			if r := results[idx]; r.err == nil {
				log.Info("done", "source", s.Key, "steps", r.run.Steps,
					"error", r.run.FinalError, "frames", len(r.run.Frames))
			}
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Profile.Name)

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		m.Runs[r.key] = r.run
	}

	// Report errors but don't fail the entire batch for partial failures.
	if len(errs) > 0 {
		if len(sources) == 1 {
			return nil, errs[0]
		}
		for _, e := range errs {
			log.Error("source failed", "err", e)
		}
		if len(errs) == len(sources) {
			return nil, fmt.Errorf("all %d images failed to process: %w", len(errs), errors.Join(errs...))
		}
		log.Warn("partial failure", "failed", len(errs), "total", len(sources))
	}

	m.RunInfo = &manifest.RunInfo{
		Iterations:     p.cfg.Iterations,
		Scale:          p.cfg.Scale,
		Workers:        p.cfg.Workers,
		Padding:        p.cfg.Profile.Padding,
		Fill:           p.cfg.Profile.Fill,
		FrameThreshold: p.cfg.Profile.FrameThreshold,
		Concurrent:     p.cfg.Concurrent,
	}
	m.ComputeStats()
	return m, nil
}

// prepare resolves encoders and the animator before any work starts, so
// a missing tool fails the run up front.
func (p *Pipeline) prepare() (job, error) {
	j := job{cfg: p.cfg, log: p.cfg.Logger}

	fill, err := p.cfg.Profile.FillColor()
	if err != nil {
		return j, err
	}
	j.opts = quadtree.RenderOptions{
		Scale:   p.cfg.Scale,
		Padding: p.cfg.Profile.Padding,
		Fill:    fill,
	}

	if j.still = p.registry.Encoder(p.cfg.Profile.Format); j.still == nil {
		return j, fmt.Errorf("unsupported output format %q", p.cfg.Profile.Format)
	}
	// Snapshots are intermediate, so always lossless.
	if j.frame = p.registry.Encoder("png"); j.frame == nil {
		return j, fmt.Errorf("png encoder missing")
	}

	if p.cfg.Frames {
		a, err := p.registry.Animator(p.cfg.Animator)
		if err != nil {
			return j, fmt.Errorf("animation: %w (%s)", err, p.registry)
		}
		j.animator = a
		j.log.Debug("animator", "name", a.Name())
	}
	return j, nil
}
