package manifest

// Manifest is the top-level output of a quart render.
type Manifest struct {
	Version     int            `json:"version"`
	GeneratedAt string         `json:"generated_at"`
	RunID       string         `json:"run_id"`
	Profile     string         `json:"profile"`
	BasePath    string         `json:"base_path"`
	RunInfo     *RunInfo       `json:"run_info,omitempty"`
	Runs        map[string]Run `json:"runs"`
	Stats       Stats          `json:"stats"`
}

// RunInfo captures render parameters shared by every run.
type RunInfo struct {
	Iterations     int     `json:"iterations"`
	Scale          float64 `json:"scale"`
	Workers        int     `json:"workers"`
	Padding        int     `json:"padding"`
	Fill           string  `json:"fill"`
	FrameThreshold float64 `json:"frame_threshold"`
	Concurrent     bool    `json:"concurrent,omitempty"`
}

// Run describes the decomposition of one source image and everything
// written for it.
type Run struct {
	Source       SourceInfo `json:"source"`
	Iterations   int        `json:"iterations"` // requested
	Steps        int        `json:"steps"`      // completed; lower when the model ran out of splittable quads
	Exhausted    bool       `json:"exhausted,omitempty"`
	Scale        float64    `json:"scale"`
	InitialError float64    `json:"initial_error"`
	FinalError   float64    `json:"final_error"`
	Leaves       int        `json:"leaves"`
	Output       Artifact   `json:"output"`
	Frames       []Frame    `json:"frames,omitempty"`
	Animation    *Artifact  `json:"animation,omitempty"`
	Archive      *Artifact  `json:"archive,omitempty"`
	ElapsedMS    int64      `json:"elapsed_ms"`
}

// SourceInfo holds metadata about the decoded source image.
type SourceInfo struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`  // after --max-dim
	Height int    `json:"height"` // after --max-dim
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Artifact is one file written by a run.
type Artifact struct {
	Path   string `json:"path"` // relative to base_path
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Size   int64  `json:"size"` // bytes on disk
	Hash   string `json:"hash"` // first 16 hex chars of xxhash64
}

// Frame is one snapshot taken during a run.
type Frame struct {
	Iteration int     `json:"iteration"`
	Error     float64 `json:"error"` // average model error when the snapshot was taken
	Hash      string  `json:"hash"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalRuns        int   `json:"total_runs"`
	TotalSteps       int   `json:"total_steps"`
	TotalFrames      int   `json:"total_frames"`
	TotalArtifacts   int   `json:"total_artifacts"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest's name inside an output directory.
const FileName = "quart.manifest.json"
