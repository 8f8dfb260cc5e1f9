package model_test

import (
	"path/filepath"
	"testing"
	"time"

	"mlpipe/pkg/dataset"
	"mlpipe/pkg/model"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func TestBundle_SaveLoadRoundTrip(t *testing.T) {
	X, y := syntheticData(150, 11)
	rf := model.New(model.Config{NEstimators: 8, MaxDepth: 6, Seed: 3})
	require.NoError(t, rf.Fit(X, y))

	bundle := &model.Bundle{
		Forest:   rf,
		Features: []string{"minimum_nights", "availability_365"},
		Target:   "price",
		Vocabulary: dataset.Vocabulary{
			"room_type": {"Entire home/apt": 0, "Private room": 1},
		},
		TrainedAt: time.Now().UTC(),
	}

	dir := filepath.Join(t.TempDir(), "model_export")
	require.NoError(t, bundle.Save(dir))

	loaded, err := model.LoadBundle(dir)
	require.NoError(t, err)
	require.Equal(t, bundle.Features, loaded.Features)
	require.Equal(t, bundle.Target, loaded.Target)
	require.Equal(t, 1.0, loaded.Vocabulary.Encode("room_type", "Private room"))

	probe, _ := syntheticData(10, 12)
	want, err := rf.Predict(probe)
	require.NoError(t, err)
	got, err := loaded.Forest.Predict(probe)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestBundle_WritesMetadata(t *testing.T) {
	X, y := syntheticData(60, 13)
	rf := model.New(model.Config{NEstimators: 3, Seed: 1})
	require.NoError(t, rf.Fit(X, y))

	dir := t.TempDir()
	bundle := &model.Bundle{Forest: rf, Features: []string{"a", "b"}, Target: "price"}
	require.NoError(t, bundle.Save(dir))

	require.FileExists(t, filepath.Join(dir, "model.gob"))
	require.FileExists(t, filepath.Join(dir, "metadata.json"))
}

func TestLoadBundle_Missing(t *testing.T) {
	_, err := model.LoadBundle(t.TempDir())

	require.ErrorIs(t, err, serrors.ErrNotFound)
}
