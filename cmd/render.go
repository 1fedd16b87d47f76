package cmd

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/justincosentino/quart/internal/encoder"
	"github.com/justincosentino/quart/internal/manifest"
	"github.com/justincosentino/quart/internal/pipeline"
	"github.com/justincosentino/quart/internal/profile"
	"github.com/spf13/cobra"
)

var (
	renderOutDir     string
	renderProfile    string
	renderGIF        bool
	renderPadding    int
	renderFill       string
	renderThreshold  float64
	renderFormat     string
	renderAnimator   string
	renderKeepFrames bool
	renderMaxDim     int
	renderWorkers    int
	renderConcurrent bool
)

var renderCmd = &cobra.Command{
	Use:   "render <image_path> <iterations> <scale>",
	Short: "Decompose images into quadrants and render the result",
	Long: `Splits each image <iterations> times, always refining the quadrant
whose flat color is the worst fit, and writes <name>_output.<ext> at
<scale> times the source size.

<image_path> is a single image or a directory of images. With --gif,
a snapshot is taken every time the average error drops by more than
the profile threshold and the snapshots are assembled into
<name>_gif.gif.`,
	Args: cobra.ExactArgs(3),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOutDir, "out", "o", ".", "output directory")
	f.StringVarP(&renderProfile, "profile", "p", profile.DefaultName, "render profile (see `quart profiles`)")
	f.BoolVarP(&renderGIF, "gif", "g", false, "assemble snapshots into an animated GIF")
	f.IntVar(&renderPadding, "padding", 0, "gap between quadrants in output pixels (default from profile)")
	f.StringVar(&renderFill, "fill", "", "background hex color, e.g. #000 (default from profile)")
	f.Float64Var(&renderThreshold, "threshold", 0, "error drop between snapshots (default from profile)")
	f.StringVar(&renderFormat, "format", "", "output format: png or jpeg (default from profile)")
	f.StringVar(&renderAnimator, "animator", encoder.AnimatorAuto, "animator: auto, convert or gif")
	f.BoolVar(&renderKeepFrames, "keep-frames", false, "archive snapshots as <name>_frames.tar.zst")
	f.IntVar(&renderMaxDim, "max-dim", 0, "downscale sources whose width or height exceeds this (0 = off)")
	f.IntVarP(&renderWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	f.BoolVar(&renderConcurrent, "concurrent", false, "analyze split children on separate goroutines")
	rootCmd.AddCommand(renderCmd)
}

// parseRenderArgs validates the positional arguments.
func parseRenderArgs(args []string) (path string, iterations int, scale float64, err error) {
	path = args[0]
	if _, err := os.Stat(path); err != nil {
		return "", 0, 0, fmt.Errorf("invalid image_path %s", path)
	}

	iterations, err = strconv.Atoi(args[1])
	if err != nil || iterations <= 0 {
		return "", 0, 0, fmt.Errorf("iterations must be a positive integer, got %q", args[1])
	}

	scale, err = strconv.ParseFloat(args[2], 64)
	if err != nil || scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return "", 0, 0, fmt.Errorf("scale must be a positive number, got %q", args[2])
	}
	return path, iterations, scale, nil
}

// renderProfileFor resolves --profile and applies the explicitly set
// overrides.
func renderProfileFor(cmd *cobra.Command) (profile.Profile, error) {
	prof, ok := profile.Lookup(renderProfile)
	if !ok {
		return prof, fmt.Errorf("unknown profile %q (available: %s)",
			renderProfile, strings.Join(profile.Names(), ", "))
	}

	flags := cmd.Flags()
	if flags.Changed("padding") {
		prof.Padding = renderPadding
	}
	if flags.Changed("fill") {
		prof.Fill = renderFill
	}
	if flags.Changed("threshold") {
		prof.FrameThreshold = renderThreshold
	}
	if flags.Changed("format") {
		prof.Format = strings.ToLower(renderFormat)
		if prof.Format == "jpg" {
			prof.Format = "jpeg"
		}
	}
	return prof, prof.Validate()
}

func runRender(cmd *cobra.Command, args []string) error {
	start := time.Now()

	input, iterations, scale, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	prof, err := renderProfileFor(cmd)
	if err != nil {
		return err
	}

	// Resolve absolute paths.
	absInput, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(renderOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	log := slog.Default()
	log.Debug("render", "input", absInput, "output", absOutput, "iterations", iterations,
		"scale", scale, "profile", prof.Name, "padding", prof.Padding, "fill", prof.Fill)

	p := pipeline.New(pipeline.Config{
		Input:      absInput,
		OutputDir:  absOutput,
		Iterations: iterations,
		Scale:      scale,
		Profile:    prof,
		Frames:     renderGIF,
		KeepFrames: renderKeepFrames,
		Animator:   renderAnimator,
		MaxDim:     renderMaxDim,
		Workers:    renderWorkers,
		Concurrent: renderConcurrent,
		Logger:     log,
	})

	m, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printRenderReport(m, time.Since(start))
	return nil
}

func printRenderReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              quart render complete               ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Sources:     %d\n", s.TotalRuns)
	fmt.Printf("  Steps:       %d\n", s.TotalSteps)
	fmt.Printf("  Frames:      %d\n", s.TotalFrames)
	fmt.Printf("  Output size: %s in %d files\n", formatBytes(s.TotalOutputBytes), s.TotalArtifacts)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	for _, k := range sortedRunKeys(m) {
		r := m.Runs[k]
		fmt.Printf("  %-32s %5d steps  error %9.2f → %9.2f\n",
			truncKey(k, 32), r.Steps, r.InitialError, r.FinalError)
		for _, a := range r.Artifacts() {
			fmt.Printf("    %s (%s)\n", a.Path, formatBytes(a.Size))
		}
	}
	fmt.Println()
	fmt.Printf("  Manifest:    %s\n", manifest.FileName)
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
