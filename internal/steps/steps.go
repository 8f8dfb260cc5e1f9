// Package steps implements the pipeline steps: fetching the raw listings,
// cleaning them, validating the cleaned dataset, splitting it, training the
// price model and evaluating it against the held-out test set.
package steps

import (
	"context"
	"path/filepath"

	"mlpipe/internal/pipeline"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/dataset"
)

// Tracked artifact names. Steps communicate exclusively through these.
const (
	ArtifactRawData           = "raw_data.csv"
	ArtifactCleanSample       = "clean_sample.csv"
	ArtifactTrainvalData      = "trainval_data.csv"
	ArtifactTestData          = "test_data.csv"
	ArtifactModelExport       = "model_export"
	ArtifactFeatureImportance = "feature_importance.png"
	ArtifactProfile           = "profile.json"
	ArtifactPriceHist         = "price_hist.png"
)

// listingColumns is the expected header of the raw and cleaned datasets.
var listingColumns = []string{
	"id", "name", "host_id", "host_name", "neighbourhood_group", "neighbourhood",
	"latitude", "longitude", "room_type", "price", "minimum_nights",
	"number_of_reviews", "last_review", "reviews_per_month",
	"calculated_host_listings_count", "availability_365",
}

// knownGroups are the only accepted neighbourhood_group values.
var knownGroups = []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}

// categoricalColumns are the features encoded through a vocabulary.
var categoricalColumns = []string{"neighbourhood_group", "neighbourhood", "room_type"}

// featureColumns are the model inputs. Identifier and free-text columns are
// left out on purpose.
var featureColumns = []string{
	"neighbourhood_group", "neighbourhood", "room_type", "latitude", "longitude",
	"minimum_nights", "number_of_reviews", "reviews_per_month",
	"calculated_host_listings_count", "availability_365",
}

// useFrame resolves the latest version of a dataset artifact and parses it.
func useFrame(ctx context.Context, run tracking.Run, name string) (*dataset.Frame, error) {
	path, err := run.UseArtifact(ctx, name)
	if err != nil {
		return nil, err
	}

	return dataset.ReadCSVFile(path)
}

// logFrame writes the frame into the step work dir and tracks it under name.
func logFrame(ctx context.Context, env *pipeline.Env, f *dataset.Frame, name string) error {
	path := filepath.Join(env.WorkDir, name)
	if err := f.WriteCSVFile(path); err != nil {
		return err
	}

	_, err := env.Run.LogArtifact(ctx, name, tracking.ArtifactDataset, path)

	return err
}

// All returns every pipeline step in canonical execution order.
func All() []pipeline.Step {
	return []pipeline.Step{
		&Download{},
		&Profile{},
		&Cleaning{},
		&Check{},
		&Split{},
		&Train{},
		&Evaluate{},
	}
}
