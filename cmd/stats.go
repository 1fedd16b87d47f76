package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/justincosentino/quart/internal/manifest"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a render output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// manifestPath accepts a manifest file or the directory holding one.
func manifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}
	return path, nil
}

func runStats(_ *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Run ID:           %s\n", m.RunID)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if ri := m.RunInfo; ri != nil {
		fmt.Printf("  Iterations:       %d at scale %g\n", ri.Iterations, ri.Scale)
		fmt.Printf("  Workers:          %d\n", ri.Workers)
		fmt.Printf("  Padding / fill:   %d / %s\n", ri.Padding, ri.Fill)
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total runs:       %d\n", s.TotalRuns)
	fmt.Printf("  Total steps:      %d\n", s.TotalSteps)
	fmt.Printf("  Total frames:     %d\n", s.TotalFrames)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Println()

	// Per-format breakdown.
	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	for _, r := range m.Runs {
		for _, a := range r.Artifacts() {
			fs := formatStats[a.Format]
			fs.count++
			fs.bytes += a.Size
			formatStats[a.Format] = fs
		}
	}
	fmt.Println("  Format breakdown:")
	for _, f := range []string{"png", "jpeg", "gif", "tar.zst"} {
		if fs, ok := formatStats[f]; ok {
			fmt.Printf("    %-8s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
	}
	fmt.Println()

	// Error reduction, best first.
	type reduction struct {
		key          string
		initial, fin float64
	}
	var items []reduction
	for k, r := range m.Runs {
		items = append(items, reduction{k, r.InitialError, r.FinalError})
	}
	sort.Slice(items, func(i, j int) bool {
		if ri, rj := reductionPct(items[i].initial, items[i].fin), reductionPct(items[j].initial, items[j].fin); ri != rj {
			return ri > rj
		}
		return items[i].key < items[j].key
	})
	if len(items) > 0 {
		fmt.Println("  Error reduction:")
		for _, it := range items {
			fmt.Printf("    %-40s %10.2f → %10.2f  (−%.1f%%)\n",
				truncKey(it.key, 40), it.initial, it.fin, reductionPct(it.initial, it.fin))
		}
		fmt.Println()
	}

	// Warnings.
	var warnings []string
	for k, r := range m.Runs {
		if r.Exhausted {
			warnings = append(warnings, fmt.Sprintf("run %q ran out of splittable quadrants after %d of %d steps",
				k, r.Steps, r.Iterations))
		}
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
		fmt.Println()
	}
}

func reductionPct(initial, final float64) float64 {
	if initial <= 0 {
		return 0
	}
	return (1 - final/initial) * 100
}

func sortedRunKeys(m *manifest.Manifest) []string {
	keys := make([]string, 0, len(m.Runs))
	for k := range m.Runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
