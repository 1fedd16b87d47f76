package manifest

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

// New creates an empty manifest with defaults and a fresh run ID.
func New(profileName string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		RunID:       uuid.NewString(),
		Profile:     profileName,
		BasePath:    "./",
		Runs:        make(map[string]Run),
	}
}

// Artifacts returns every artifact of the run, output first.
func (r Run) Artifacts() []Artifact {
	arts := []Artifact{r.Output}
	if r.Animation != nil {
		arts = append(arts, *r.Animation)
	}
	if r.Archive != nil {
		arts = append(arts, *r.Archive)
	}
	return arts
}

// ComputeStats recalculates aggregate statistics from runs.
func (m *Manifest) ComputeStats() {
	m.Stats = m.computeStats()
}

func (m *Manifest) computeStats() Stats {
	var s Stats
	s.TotalRuns = len(m.Runs)
	for _, r := range m.Runs {
		s.TotalInputBytes += r.Source.Size
		s.TotalSteps += r.Steps
		s.TotalFrames += len(r.Frames)
		for _, a := range r.Artifacts() {
			s.TotalArtifacts++
			s.TotalOutputBytes += a.Size
		}
	}
	return s
}

// StatsConsistent reports whether the stored stats match the runs.
func (m *Manifest) StatsConsistent() bool {
	return m.Stats == m.computeStats()
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a manifest and rejects schema versions this build does
// not understand.
func ReadJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Version != SupportedManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d (want %d)", m.Version, SupportedManifestVersion)
	}
	if m.Runs == nil {
		m.Runs = make(map[string]Run)
	}
	return &m, nil
}
