package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

func sampleRun() Run {
	return Run{
		Source:       SourceInfo{Path: "photos/cat.jpg", Width: 640, Height: 480, Format: "jpeg", Size: 100000},
		Iterations:   1024,
		Steps:        1024,
		Scale:        1,
		InitialError: 1800.5,
		FinalError:   95.25,
		Leaves:       3073,
		Output:       Artifact{Path: "cat_output.png", Format: "png", Width: 641, Height: 481, Size: 20000, Hash: "abcd1234abcd1234"},
		Frames: []Frame{
			{Iteration: 0, Error: 1800.5, Hash: "0000000000000001"},
			{Iteration: 3, Error: 1700, Hash: "0000000000000002"},
		},
		Animation: &Artifact{Path: "cat_gif.gif", Format: "gif", Size: 50000, Hash: "ffff0000ffff0000"},
	}
}

func TestManifestRoundtrip(t *testing.T) {
	m := New("classic")
	m.RunInfo = &RunInfo{Iterations: 1024, Scale: 1, Workers: 4, Padding: 1, Fill: "#000000", FrameThreshold: 50}
	m.Runs["photos/cat"] = sampleRun()

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	m2, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if m2.Version != SupportedManifestVersion {
		t.Errorf("version: got %d, want %d", m2.Version, SupportedManifestVersion)
	}
	if m2.Profile != "classic" {
		t.Errorf("profile: got %q", m2.Profile)
	}
	if m2.RunID != m.RunID {
		t.Errorf("run_id: got %q, want %q", m2.RunID, m.RunID)
	}
	if m2.RunInfo == nil {
		t.Fatal("run_info missing")
	}
	if m2.RunInfo.Workers != 4 || m2.RunInfo.FrameThreshold != 50 {
		t.Errorf("run_info: got %+v", *m2.RunInfo)
	}

	r, ok := m2.Runs["photos/cat"]
	if !ok {
		t.Fatal("run photos/cat missing")
	}
	if r.Steps != 1024 || r.Leaves != 3073 {
		t.Errorf("steps/leaves: got %d/%d", r.Steps, r.Leaves)
	}
	if len(r.Frames) != 2 || r.Frames[1].Iteration != 3 {
		t.Errorf("frames: got %+v", r.Frames)
	}
	if r.Animation == nil || r.Animation.Format != "gif" {
		t.Errorf("animation: got %+v", r.Animation)
	}
	if r.Archive != nil {
		t.Errorf("archive: got %+v, want nil", r.Archive)
	}

	if m2.Stats.TotalRuns != 1 {
		t.Errorf("total_runs: got %d", m2.Stats.TotalRuns)
	}
	if m2.Stats.TotalFrames != 2 {
		t.Errorf("total_frames: got %d", m2.Stats.TotalFrames)
	}
	if m2.Stats.TotalArtifacts != 2 {
		t.Errorf("total_artifacts: got %d", m2.Stats.TotalArtifacts)
	}
	if m2.Stats.TotalOutputBytes != 70000 {
		t.Errorf("total_output_bytes: got %d", m2.Stats.TotalOutputBytes)
	}
	if !m2.StatsConsistent() {
		t.Error("stats inconsistent after roundtrip")
	}
}

func TestManifestVersion(t *testing.T) {
	m := New("v-test")
	if m.Version != SupportedManifestVersion {
		t.Errorf("new manifest version: got %d, want %d", m.Version, SupportedManifestVersion)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("run_id %q: %v", m.RunID, err)
	}
	if New("v-test").RunID == m.RunID {
		t.Error("run ids repeat")
	}
}

func TestManifestStatsConsistent(t *testing.T) {
	m := New("classic")
	m.Runs["a"] = sampleRun()
	if m.StatsConsistent() {
		t.Error("zero stats reported consistent with one run")
	}
	m.ComputeStats()
	if !m.StatsConsistent() {
		t.Error("computed stats reported inconsistent")
	}
	m.Stats.TotalSteps++
	if m.StatsConsistent() {
		t.Error("tampered stats reported consistent")
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	// Simulate a future manifest with extra fields.
	raw := `{
		"version": 1,
		"generated_at": "2026-01-01T00:00:00Z",
		"run_id": "6f1c8a1e-2f0e-4d3a-9a57-0c7b3c8f5d21",
		"profile": "classic",
		"base_path": "./",
		"future_field": "should be ignored",
		"run_info": { "iterations": 8, "scale": 2, "workers": 8, "new_flag": true },
		"runs": {},
		"stats": { "total_runs": 0, "total_steps": 0, "new_stat": 42 }
	}`

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("version: got %d", m.Version)
	}
	if m.RunInfo == nil || m.RunInfo.Workers != 8 || m.RunInfo.Scale != 2 {
		t.Error("run_info not parsed correctly")
	}
}

func TestReadJSONRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(`{"version": 7, "runs": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(path); err == nil {
		t.Fatal("expected version error")
	}

	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(path); err == nil {
		t.Fatal("expected parse error")
	}
}
