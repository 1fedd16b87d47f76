package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/justincosentino/quart/internal/archive"
	"github.com/justincosentino/quart/internal/encoder"
	"github.com/justincosentino/quart/internal/hasher"
	"github.com/justincosentino/quart/internal/manifest"
	"github.com/justincosentino/quart/internal/quadtree"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key string
	run manifest.Run
	err error
}

// job bundles what every source shares.
type job struct {
	cfg      Config
	opts     quadtree.RenderOptions
	still    encoder.Encoder
	frame    encoder.Encoder
	animator encoder.Animator // nil unless cfg.Frames
	log      *slog.Logger
}

// processImage decodes one source, decomposes it for the configured
// number of iterations and writes its output, animation and frame
// archive.
func processImage(ctx context.Context, src Source, j job) processResult {
	result := processResult{key: src.Key}
	start := time.Now()
	cfg := j.cfg
	log := j.log.With("source", src.Key)

	img, err := imaging.Open(src.AbsPath, imaging.AutoOrientation(true))
	if err != nil {
		result.err = fmt.Errorf("decode %s: %w", src.RelPath, err)
		return result
	}
	if cfg.MaxDim > 0 {
		b := img.Bounds()
		if b.Dx() > cfg.MaxDim || b.Dy() > cfg.MaxDim {
			img = imaging.Fit(img, cfg.MaxDim, cfg.MaxDim, imaging.Lanczos)
			log.Debug("downscaled source", "from", b.Size(), "to", img.Bounds().Size())
		}
	}

	m := quadtree.New(img, quadtree.Config{Scale: cfg.Scale, Concurrent: cfg.Concurrent})
	result.run = manifest.Run{
		Source: manifest.SourceInfo{
			Path:   src.RelPath,
			Width:  m.Width(),
			Height: m.Height(),
			Format: src.Format,
			Size:   src.Size,
		},
		Iterations:   cfg.Iterations,
		Scale:        cfg.Scale,
		InitialError: m.AverageError(),
	}

	// Snapshots go to a private temp dir that never outlives the run.
	writeFrames := cfg.Frames || cfg.KeepFrames
	var frameDir string
	if writeFrames {
		frameDir, err = os.MkdirTemp("", "quart-"+src.Prefix+"-")
		if err != nil {
			result.err = fmt.Errorf("frames %s: %w", src.Key, err)
			return result
		}
		defer os.RemoveAll(frameDir)
	}

	policy := FramePolicy{Threshold: cfg.Profile.FrameThreshold}
	var framePaths []string
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			result.err = fmt.Errorf("%s: %w", src.Key, err)
			return result
		}

		e := m.AverageError()
		if policy.Due(e) && writeFrames {
			path := filepath.Join(frameDir, FrameName(i, src.Prefix))
			data, err := j.frame.Encode(m.RenderWith(j.opts), cfg.Profile.Quality)
			if err == nil {
				err = os.WriteFile(path, data, 0o644)
			}
			if err != nil {
				result.err = fmt.Errorf("frame %d of %s: %w", i, src.Key, err)
				return result
			}
			framePaths = append(framePaths, path)
			result.run.Frames = append(result.run.Frames, manifest.Frame{
				Iteration: i,
				Error:     e,
				Hash:      hasher.ContentHash(data, hasher.HexLen),
			})
			log.Debug("frame", "iteration", i, "error", e)
		}

		if !m.Step() {
			result.run.Exhausted = true
			log.Info("no splittable quads left", "steps", m.Steps())
			break
		}
	}

	result.run.Steps = m.Steps()
	result.run.FinalError = m.AverageError()
	result.run.Leaves = m.FrontierLen()

	// Final image.
	out := m.RenderWith(j.opts)
	data, err := j.still.Encode(out, cfg.Profile.Quality)
	if err != nil {
		result.err = fmt.Errorf("encode %s: %w", src.Key, err)
		return result
	}
	outRel := src.Prefix + "_output." + j.still.Extension()
	outPath := filepath.Join(cfg.OutputDir, outRel)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		result.err = fmt.Errorf("write %s: %w", outRel, err)
		return result
	}
	result.run.Output = manifest.Artifact{
		Path:   outRel,
		Format: j.still.Format(),
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
		Size:   int64(len(data)),
		Hash:   hasher.ContentHash(data, hasher.HexLen),
	}

	if cfg.Frames {
		frames := make([]encoder.Frame, 0, len(framePaths)+1)
		for _, p := range framePaths {
			frames = append(frames, encoder.Frame{Path: p, Delay: cfg.Profile.FrameDelay})
		}
		frames = append(frames, encoder.Frame{Path: outPath, Delay: cfg.Profile.FinalDelay})

		gifRel := src.Prefix + "_gif.gif"
		if err := j.animator.Assemble(ctx, frames, filepath.Join(cfg.OutputDir, gifRel)); err != nil {
			result.err = fmt.Errorf("animate %s: %w", src.Key, err)
			return result
		}
		art, err := artifact(cfg.OutputDir, gifRel, "gif")
		if err != nil {
			result.err = err
			return result
		}
		art.Width, art.Height = out.Bounds().Dx(), out.Bounds().Dy()
		result.run.Animation = &art
	}

	if cfg.KeepFrames {
		arcRel := src.Prefix + "_frames" + archive.Extension
		if _, err := archive.WriteFiles(filepath.Join(cfg.OutputDir, arcRel), framePaths); err != nil {
			result.err = fmt.Errorf("archive %s: %w", src.Key, err)
			return result
		}
		art, err := artifact(cfg.OutputDir, arcRel, "tar.zst")
		if err != nil {
			result.err = err
			return result
		}
		result.run.Archive = &art
	}

	result.run.ElapsedMS = time.Since(start).Milliseconds()
	return result
}

// artifact describes a file already written under dir.
func artifact(dir, rel, format string) (manifest.Artifact, error) {
	hash, size, err := hasher.FileHash(filepath.Join(dir, rel))
	if err != nil {
		return manifest.Artifact{}, fmt.Errorf("hash %s: %w", rel, err)
	}
	return manifest.Artifact{Path: rel, Format: format, Size: size, Hash: hash}, nil
}
