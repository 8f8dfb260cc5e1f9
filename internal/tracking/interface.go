// Package tracking defines the experiment tracking interfaces the pipeline
// records against. The tracker owns run lifecycles and versioned artifacts;
// steps only see the Run handle the runner hands them.
//
//go:generate mockgen -package mocktracking -source=interface.go -destination=mock/mocktracking.go *
package tracking

import "context"

// RunStatus is the terminal or in-flight state of a tracked run.
type RunStatus string

const (
	// RunStatusRunning marks a run that has started and not finished.
	RunStatusRunning RunStatus = "RUNNING"
	// RunStatusFinished marks a successfully completed run.
	RunStatusFinished RunStatus = "FINISHED"
	// RunStatusFailed marks a run whose step returned an error.
	RunStatusFailed RunStatus = "FAILED"
)

// ArtifactKind classifies tracked artifacts.
type ArtifactKind string

const (
	// ArtifactDataset marks CSV datasets flowing between steps.
	ArtifactDataset ArtifactKind = "dataset"
	// ArtifactModel marks exported model bundles.
	ArtifactModel ArtifactKind = "model"
	// ArtifactImage marks rendered plots.
	ArtifactImage ArtifactKind = "image"
	// ArtifactReport marks JSON reports such as dataset profiles.
	ArtifactReport ArtifactKind = "report"
)

// RunConfig describes the run to start: which project and experiment it
// belongs to and which pipeline step (job type) produces it.
type RunConfig struct {
	Project    string
	Experiment string
	JobType    string
	Name       string
}

// Artifact is one stored version of a named artifact.
type Artifact struct {
	Name    string       `json:"name"`
	Kind    ArtifactKind `json:"kind"`
	Version int          `json:"version"`
	Digest  string       `json:"digest,omitempty"`
	Path    string       `json:"path"`
}

// Run is the handle a step uses to record parameters, metrics and artifacts.
// Implementations must be safe for sequential use within a single step; the
// runner finishes every run it starts, also when the step fails.
type Run interface {
	// ID returns the tracker-assigned run identifier.
	ID() string

	// LogParams records the step parameters.
	LogParams(ctx context.Context, params map[string]any) error

	// LogMetrics records numeric results such as evaluation metrics.
	LogMetrics(ctx context.Context, metrics map[string]float64) error

	// LogArtifact stores a new version of the named artifact from the file or
	// directory at localPath and returns the stored version.
	LogArtifact(ctx context.Context, name string, kind ArtifactKind, localPath string) (*Artifact, error)

	// UseArtifact resolves the latest version of the named artifact to a local
	// path the step can read.
	UseArtifact(ctx context.Context, name string) (string, error)

	// UsePriorArtifact resolves the version preceding the latest one. It lets
	// a step compare fresh output against what the previous pipeline run
	// produced under the same name.
	UsePriorArtifact(ctx context.Context, name string) (string, error)

	// Finish transitions the run to a terminal status.
	Finish(ctx context.Context, status RunStatus) error
}

// Tracker starts runs. The local tracker is always available; the remote one
// additionally mirrors records to the tracking API and object storage.
type Tracker interface {
	StartRun(ctx context.Context, cfg RunConfig) (Run, error)
}
