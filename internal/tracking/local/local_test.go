package local_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mlpipe/internal/tracking"
	"mlpipe/internal/tracking/local"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T) *local.Tracker {
	t.Helper()

	tracker, err := local.New(t.TempDir())
	require.NoError(t, err)

	return tracker
}

func startRun(t *testing.T, tracker *local.Tracker) tracking.Run {
	t.Helper()

	run, err := tracker.StartRun(context.Background(), tracking.RunConfig{
		Project:    "nyc-rentals",
		Experiment: "development",
		JobType:    "basic_cleaning",
	})
	require.NoError(t, err)

	return run
}

func TestStartRun_AssignsID(t *testing.T) {
	tracker := newTracker(t)

	first := startRun(t, tracker)
	second := startRun(t, tracker)

	require.NotEmpty(t, first.ID())
	require.NotEqual(t, first.ID(), second.ID())
}

func TestRun_ParamsAndMetricsPersisted(t *testing.T) {
	root := t.TempDir()
	tracker, err := local.New(root)
	require.NoError(t, err)
	run := startRun(t, tracker)
	ctx := context.Background()

	require.NoError(t, run.LogParams(ctx, map[string]any{"min_price": 10.0}))
	require.NoError(t, run.LogMetrics(ctx, map[string]float64{"mae": 33.2}))
	require.NoError(t, run.Finish(ctx, tracking.RunStatusFinished))

	data, err := os.ReadFile(filepath.Join(root, "runs", run.ID(), "run.json"))
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Equal(t, "FINISHED", rec["status"])
	require.Equal(t, 10.0, rec["params"].(map[string]any)["min_price"])
	require.Equal(t, 33.2, rec["metrics"].(map[string]any)["mae"])
}

func TestLogArtifact_VersionsIncrement(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,price\n1,60\n"), 0o644))

	first, err := run.LogArtifact(ctx, "clean_sample.csv", tracking.ArtifactDataset, src)
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)
	require.NotEmpty(t, first.Digest)

	require.NoError(t, os.WriteFile(src, []byte("id,price\n1,61\n"), 0o644))
	second, err := run.LogArtifact(ctx, "clean_sample.csv", tracking.ArtifactDataset, src)
	require.NoError(t, err)
	require.Equal(t, 2, second.Version)

	latest, err := run.UseArtifact(ctx, "clean_sample.csv")
	require.NoError(t, err)
	data, err := os.ReadFile(latest)
	require.NoError(t, err)
	require.Equal(t, "id,price\n1,61\n", string(data))
}

func TestLogArtifact_Directory(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "model_export")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "model.gob"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "metadata.json"), []byte("{}"), 0o644))

	artifact, err := run.LogArtifact(ctx, "model_export", tracking.ArtifactModel, src)
	require.NoError(t, err)

	resolved, err := run.UseArtifact(ctx, "model_export")
	require.NoError(t, err)
	require.Equal(t, artifact.Path, resolved)
	require.FileExists(t, filepath.Join(resolved, "model.gob"))
	require.FileExists(t, filepath.Join(resolved, "metadata.json"))
}

func TestUsePriorArtifact(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,price\n1,60\n"), 0o644))
	_, err := run.LogArtifact(ctx, "clean_sample.csv", tracking.ArtifactDataset, src)
	require.NoError(t, err)

	// Only one version stored, so there is no prior one yet.
	_, err = run.UsePriorArtifact(ctx, "clean_sample.csv")
	require.ErrorIs(t, err, serrors.ErrNotFound)

	require.NoError(t, os.WriteFile(src, []byte("id,price\n1,61\n"), 0o644))
	_, err = run.LogArtifact(ctx, "clean_sample.csv", tracking.ArtifactDataset, src)
	require.NoError(t, err)

	prior, err := run.UsePriorArtifact(ctx, "clean_sample.csv")
	require.NoError(t, err)
	data, err := os.ReadFile(prior)
	require.NoError(t, err)
	require.Equal(t, "id,price\n1,60\n", string(data))

	latest, err := run.UseArtifact(ctx, "clean_sample.csv")
	require.NoError(t, err)
	require.NotEqual(t, prior, latest)
}

func TestUseArtifact_Unknown(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)

	_, err := run.UseArtifact(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestLogArtifact_MissingSource(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)

	_, err := run.LogArtifact(context.Background(), "raw_data.csv", tracking.ArtifactDataset, "/does/not/exist.csv")
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestFinish_Idempotent(t *testing.T) {
	tracker := newTracker(t)
	run := startRun(t, tracker)
	ctx := context.Background()

	require.NoError(t, run.Finish(ctx, tracking.RunStatusFailed))
	// The second Finish keeps the first terminal status.
	require.NoError(t, run.Finish(ctx, tracking.RunStatusFinished))
}
