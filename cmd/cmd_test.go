package cmd

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/justincosentino/quart/internal/hasher"
	"github.com/justincosentino/quart/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHalves(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 4 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

func TestParseRenderArgs(t *testing.T) {
	img := filepath.Join(t.TempDir(), "in.png")
	writeHalves(t, img)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"valid", []string{img, "10", "1.5"}, ""},
		{"missing path", []string{"/no/such/file.png", "10", "1"}, "invalid image_path /no/such/file.png"},
		{"zero iterations", []string{img, "0", "1"}, "iterations must be a positive integer"},
		{"negative iterations", []string{img, "-3", "1"}, "iterations must be a positive integer"},
		{"fractional iterations", []string{img, "2.5", "1"}, "iterations must be a positive integer"},
		{"zero scale", []string{img, "1", "0"}, "scale must be a positive number"},
		{"text scale", []string{img, "1", "big"}, "scale must be a positive number"},
		{"infinite scale", []string{img, "1", "Inf"}, "scale must be a positive number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseRenderArgs(tt.args)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	path, iterations, scale, err := parseRenderArgs([]string{img, "10", "1.5"})
	require.NoError(t, err)
	assert.Equal(t, img, path)
	assert.Equal(t, 10, iterations)
	assert.Equal(t, 1.5, scale)
}

func TestRenderRejectsBadInput(t *testing.T) {
	err := execute("render", "/no/such/file.png", "10", "1")
	require.EqualError(t, err, "invalid image_path /no/such/file.png")

	require.Error(t, execute("render", "only-one-arg"))
}

func TestRenderValidateStats(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "halves.png")
	writeHalves(t, img)
	out := filepath.Join(dir, "out")

	require.NoError(t, execute("render", img, "4", "2",
		"-o", out, "--profile", "seamless", "--fill", "#fff",
		"--gif", "--animator", "gif", "--keep-frames"))

	for _, name := range []string{"halves_output.png", "halves_gif.gif", "halves_frames.tar.zst", manifest.FileName} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	m, err := manifest.ReadJSON(filepath.Join(out, manifest.FileName))
	require.NoError(t, err)
	require.Equal(t, "seamless", m.Profile)
	require.NotNil(t, m.RunInfo)
	assert.Equal(t, "#fff", m.RunInfo.Fill)
	r := m.Runs["halves"]
	assert.Equal(t, 4, r.Steps)
	assert.Equal(t, 16, r.Output.Width)

	final, err := imaging.Open(filepath.Join(out, "halves_output.png"))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, color.NRGBAModel.Convert(final.At(0, 0)))

	require.NoError(t, execute("validate", filepath.Join(out, manifest.FileName)))
	require.NoError(t, execute("stats", out))

	// Any change on disk is caught.
	require.NoError(t, os.WriteFile(filepath.Join(out, "halves_output.png"), []byte("tampered"), 0o644))
	require.ErrorContains(t, execute("validate", out), "validation failed")
}

func TestValidateManifest(t *testing.T) {
	dir := t.TempDir()
	data := []byte("png bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_output.png"), data, 0o644))

	m := manifest.New("classic")
	m.Runs["a"] = manifest.Run{
		Source:     manifest.SourceInfo{Width: 8, Height: 8},
		Iterations: 2,
		Steps:      2,
		Leaves:     7,
		Output:     manifest.Artifact{Path: "a_output.png", Format: "png", Size: int64(len(data)), Hash: "ef46db3751d8e999"},
	}
	m.Runs["b"] = manifest.Run{
		Source:       manifest.SourceInfo{Width: 8, Height: 8},
		Iterations:   1,
		Steps:        2,
		Leaves:       5,
		InitialError: 1,
		FinalError:   2,
		Frames:       []manifest.Frame{{Iteration: 0, Hash: "x"}, {Iteration: 0}},
		Output:       manifest.Artifact{Path: "a_output.png", Format: "png"},
		Archive:      &manifest.Artifact{Path: "missing.tar.zst", Format: "tar.zst"},
	}
	m.ComputeStats()
	m.Stats.TotalFrames = 99

	errs := validateManifest(m, dir)
	joined := func(substr string) bool {
		for _, e := range errs {
			if strings.Contains(e, substr) {
				return true
			}
		}
		return false
	}

	assert.True(t, joined(`run "a": a_output.png hash mismatch`), errs)
	assert.True(t, joined(`run "b": 2 steps for 1 iterations`), errs)
	assert.True(t, joined(`run "b": 5 leaves after 2 steps, want 7`), errs)
	assert.True(t, joined(`run "b": error rose`), errs)
	assert.True(t, joined(`run "b" frame[1]: iteration 0 out of order`), errs)
	assert.True(t, joined(`run "b" frame[1]: missing hash`), errs)
	assert.True(t, joined(`path "a_output.png" already used by run "a"`), errs)
	assert.True(t, joined(`run "b": file not found: missing.tar.zst`), errs)
	assert.True(t, joined("stats mismatch"), errs)
}

func TestValidateToleratesErrorDrift(t *testing.T) {
	dir := t.TempDir()
	data := []byte("png bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_output.png"), data, 0o644))

	initial := 11439.583333333334
	final := math.Nextafter(math.Nextafter(initial, math.Inf(1)), math.Inf(1))
	require.Greater(t, final, initial)

	m := manifest.New("classic")
	m.Runs["c"] = manifest.Run{
		Source:       manifest.SourceInfo{Width: 8, Height: 8},
		Iterations:   2,
		Steps:        2,
		Leaves:       7,
		InitialError: initial,
		FinalError:   final,
		Output:       manifest.Artifact{Path: "c_output.png", Format: "png", Size: int64(len(data)), Hash: hasher.ContentHash(data, hasher.HexLen)},
	}
	m.ComputeStats()
	require.Empty(t, validateManifest(m, dir))

	assert.False(t, errorRose(0, 1e-12))
	assert.True(t, errorRose(100, 100.01))
	assert.True(t, errorRose(0, 1e-6))
}
