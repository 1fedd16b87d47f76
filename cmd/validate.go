package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/justincosentino/quart/internal/hasher"
	"github.com/justincosentino/quart/internal/manifest"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a quart manifest and check referenced files",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	errors := validateManifest(m, filepath.Dir(path))
	if len(errors) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d runs, %d artifacts, all files present and unchanged\n",
			m.Stats.TotalRuns, m.Stats.TotalArtifacts)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	seenPaths := map[string]string{}
	for _, key := range sortedRunKeys(m) {
		r := m.Runs[key]

		if r.Source.Width <= 0 || r.Source.Height <= 0 {
			errs = append(errs, fmt.Sprintf("run %q: invalid source dimensions %dx%d",
				key, r.Source.Width, r.Source.Height))
		}
		if r.Steps < 0 || r.Steps > r.Iterations {
			errs = append(errs, fmt.Sprintf("run %q: %d steps for %d iterations", key, r.Steps, r.Iterations))
		}
		// Every step trades one leaf for four.
		if r.Leaves != 1+3*r.Steps {
			errs = append(errs, fmt.Sprintf("run %q: %d leaves after %d steps, want %d",
				key, r.Leaves, r.Steps, 1+3*r.Steps))
		}
		if errorRose(r.InitialError, r.FinalError) {
			errs = append(errs, fmt.Sprintf("run %q: error rose from %.4f to %.4f", key, r.InitialError, r.FinalError))
		}

		last := -1
		for i, f := range r.Frames {
			if f.Iteration <= last || f.Iteration >= r.Iterations {
				errs = append(errs, fmt.Sprintf("run %q frame[%d]: iteration %d out of order", key, i, f.Iteration))
			}
			last = f.Iteration
			if f.Hash == "" {
				errs = append(errs, fmt.Sprintf("run %q frame[%d]: missing hash", key, i))
			}
		}

		for _, a := range r.Artifacts() {
			if a.Path == "" {
				errs = append(errs, fmt.Sprintf("run %q: %s artifact without path", key, a.Format))
				continue
			}

			// Check duplicate paths.
			if other, ok := seenPaths[a.Path]; ok {
				errs = append(errs, fmt.Sprintf("run %q: path %q already used by run %q", key, a.Path, other))
			}
			seenPaths[a.Path] = key

			errs = append(errs, checkArtifact(key, a, baseDir)...)
		}
	}

	if !m.StatsConsistent() {
		want := *m
		want.ComputeStats()
		errs = append(errs, fmt.Sprintf("stats mismatch: manifest=%+v, runs=%+v", m.Stats, want.Stats))
	}

	return errs
}

// checkArtifact compares an artifact's recorded size and hash with the
// file on disk.
func checkArtifact(key string, a manifest.Artifact, baseDir string) []string {
	hash, size, err := hasher.FileHash(filepath.Join(baseDir, a.Path))
	if err != nil {
		return []string{fmt.Sprintf("run %q: file not found: %s", key, a.Path)}
	}

	var errs []string
	if size != a.Size {
		errs = append(errs, fmt.Sprintf("run %q: %s size mismatch: manifest=%d, disk=%d", key, a.Path, a.Size, size))
	}
	if hash != a.Hash {
		errs = append(errs, fmt.Sprintf("run %q: %s hash mismatch: manifest=%s, disk=%s", key, a.Path, a.Hash, hash))
	}
	return errs
}

// errorRose reports whether final exceeds initial by more than the drift
// of the model's running float sums.
func errorRose(initial, final float64) bool {
	return final > initial*(1+1e-9)+1e-9
}
