package steps_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/internal/steps"
	"mlpipe/internal/tracking"
	"mlpipe/internal/tracking/local"
	"mlpipe/pkg/dataset"
)

var listingHeader = []string{
	"id", "name", "host_id", "host_name", "neighbourhood_group", "neighbourhood",
	"latitude", "longitude", "room_type", "price", "minimum_nights",
	"number_of_reviews", "last_review", "reviews_per_month",
	"calculated_host_listings_count", "availability_365",
}

var sampleGroups = []string{"Manhattan", "Brooklyn", "Queens", "Bronx"}
var sampleRooms = []string{"Entire home/apt", "Private room", "Shared room"}

// listingRow builds one raw dataset row with sensible defaults.
func listingRow(id int, group, room string, lat, lon, price float64, lastReview string) []string {
	return []string{
		fmt.Sprintf("%d", id),
		fmt.Sprintf("Listing %d", id),
		fmt.Sprintf("%d", 1000+id),
		"Host",
		group,
		group + " Center",
		fmt.Sprintf("%.5f", lat),
		fmt.Sprintf("%.5f", lon),
		room,
		fmt.Sprintf("%.0f", price),
		"2",
		fmt.Sprintf("%d", id%30),
		lastReview,
		"0.5",
		"1",
		fmt.Sprintf("%d", id%365),
	}
}

// sampleFrame generates n in-bounds listings whose price depends on the room
// type and borough, so a model has signal to learn.
func sampleFrame(t *testing.T, n int) *dataset.Frame {
	t.Helper()

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		group := sampleGroups[i%len(sampleGroups)]
		room := sampleRooms[i%len(sampleRooms)]
		price := 40.0 + 60.0*float64(i%len(sampleRooms)) + 10.0*float64(i%len(sampleGroups)) + float64(i%7)
		lat := 40.6 + 0.4*float64(i%10)/10.0
		lon := -74.1 + 0.5*float64(i%10)/10.0
		rows = append(rows, listingRow(i+1, group, room, lat, lon, price, "2019-05-21"))
	}

	frame, err := dataset.New(listingHeader, rows)
	require.NoError(t, err)

	return frame
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Project.Name = "nyc-rentals"
	cfg.Project.Experiment = "test"
	cfg.ETL.MinPrice = 10
	cfg.ETL.MaxPrice = 350
	cfg.ETL.MinLongitude = -74.25
	cfg.ETL.MaxLongitude = -73.50
	cfg.ETL.MinLatitude = 40.5
	cfg.ETL.MaxLatitude = 41.2
	cfg.Checks.MinRows = 5
	cfg.Checks.MaxRows = 1000000
	cfg.Checks.KLThreshold = 0.2
	cfg.Checks.ReferenceArtifact = "clean_sample.csv"
	cfg.Split.TestSize = 0.2
	cfg.Split.ValSize = 0.25
	cfg.Split.RandomSeed = 42
	cfg.Split.StratifyBy = "neighbourhood_group"
	cfg.Modeling.TargetColumn = "price"
	cfg.Modeling.RandomForest.NEstimators = 10
	cfg.Modeling.RandomForest.MaxDepth = 6
	cfg.Modeling.RandomForest.MinSamplesSplit = 2
	cfg.Modeling.RandomForest.MinSamplesLeaf = 1
	cfg.Modeling.RandomForest.MaxFeatures = 0.5

	return cfg
}

// newEnv starts a tracked run in a temporary local store and builds the step
// environment around it. The store root is returned so tests can inspect the
// persisted run record.
func newEnv(t *testing.T, cfg *config.Config) (*pipeline.Env, string) {
	t.Helper()

	root := t.TempDir()
	tracker, err := local.New(root)
	require.NoError(t, err)

	run, err := tracker.StartRun(context.Background(), tracking.RunConfig{
		Project:    cfg.Project.Name,
		Experiment: cfg.Project.Experiment,
		JobType:    "test",
	})
	require.NoError(t, err)

	return &pipeline.Env{Cfg: cfg, Run: run, WorkDir: t.TempDir()}, root
}

// logDataset tracks the frame as a named dataset artifact on the run.
func logDataset(t *testing.T, env *pipeline.Env, frame *dataset.Frame, name string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, frame.WriteCSVFile(path))

	_, err := env.Run.LogArtifact(context.Background(), name, tracking.ArtifactDataset, path)
	require.NoError(t, err)
}

// useDataset resolves and parses a dataset artifact from the run.
func useDataset(t *testing.T, env *pipeline.Env, name string) *dataset.Frame {
	t.Helper()

	path, err := env.Run.UseArtifact(context.Background(), name)
	require.NoError(t, err)

	frame, err := dataset.ReadCSVFile(path)
	require.NoError(t, err)

	return frame
}

// runMetrics reads the metrics persisted for the run from the local store.
func runMetrics(t *testing.T, root string, env *pipeline.Env) map[string]float64 {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, "runs", env.Run.ID(), "run.json"))
	require.NoError(t, err)

	var record struct {
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(data, &record))

	return record.Metrics
}

func TestAll_CanonicalOrder(t *testing.T) {
	var names []string
	for _, step := range steps.All() {
		names = append(names, step.Name())
	}

	require.Equal(t, []string{
		"download", "profile", "basic_cleaning", "data_check",
		"data_split", "train_random_forest", "test_regression_model",
	}, names)
}
