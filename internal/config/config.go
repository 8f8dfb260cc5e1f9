// Package config loads the pipeline configuration from a yaml file and the
// environment, and applies command-line overrides on top.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"mlpipe/pkg/serrors"
)

// Config represents the full pipeline configuration. Values come from the
// yaml file, can be replaced by environment variables, and finally by
// --set overrides. Credentials are environment-only.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// Project identifies the experiment all step runs are grouped under.
	Project struct {
		// Name is the tracking project the runs belong to.
		Name string `env:"PROJECT_NAME" env-default:"nyc-rentals" yaml:"name"`
		// Experiment groups the step runs of one pipeline invocation.
		Experiment string `env:"PROJECT_EXPERIMENT" env-default:"development" yaml:"experiment"`
	} `yaml:"project"`

	// Steps is the ordered list of steps executed by default. An empty list
	// means the full registered order.
	Steps []string `yaml:"steps"`

	// Download configures the source dataset fetch.
	Download struct {
		// URL is the location of the raw listings CSV.
		URL string `env:"DOWNLOAD_URL" yaml:"url"`
		// Timeout bounds the whole download request.
		Timeout time.Duration `env:"DOWNLOAD_TIMEOUT" env-default:"2m" yaml:"timeout"`
	} `yaml:"download"`

	// ETL holds the cleaning thresholds.
	ETL struct {
		// MinPrice is the lowest nightly price kept by cleaning.
		MinPrice float64 `env:"ETL_MIN_PRICE" env-default:"10" yaml:"minPrice"`
		// MaxPrice is the highest nightly price kept by cleaning.
		MaxPrice float64 `env:"ETL_MAX_PRICE" env-default:"350" yaml:"maxPrice"`
		// MinLongitude..MaxLatitude bound the geographic box listings must fall in.
		MinLongitude float64 `env-default:"-74.25" yaml:"minLongitude"`
		MaxLongitude float64 `env-default:"-73.50" yaml:"maxLongitude"`
		MinLatitude  float64 `env-default:"40.5" yaml:"minLatitude"`
		MaxLatitude  float64 `env-default:"41.2" yaml:"maxLatitude"`
	} `yaml:"etl"`

	// Checks holds the data validation thresholds.
	Checks struct {
		// MinRows and MaxRows bound the accepted cleaned dataset size.
		MinRows int `env-default:"15000" yaml:"minRows"`
		MaxRows int `env-default:"1000000" yaml:"maxRows"`
		// KLThreshold is the maximum accepted KL divergence between the
		// neighbourhood group distribution and the reference artifact.
		KLThreshold float64 `env-default:"0.2" yaml:"klThreshold"`
		// ReferenceArtifact names the tracked artifact the distribution check
		// compares against.
		ReferenceArtifact string `env-default:"clean_sample.csv" yaml:"referenceArtifact"`
	} `yaml:"checks"`

	// Split holds the dataset partitioning parameters.
	Split struct {
		// TestSize is the fraction of rows held out for the final test set.
		TestSize float64 `env-default:"0.2" yaml:"testSize"`
		// ValSize is the fraction of the trainval set carved out for validation.
		ValSize float64 `env-default:"0.2" yaml:"valSize"`
		// RandomSeed makes splits reproducible.
		RandomSeed int64 `env-default:"42" yaml:"randomSeed"`
		// StratifyBy names the column whose value proportions the split preserves.
		StratifyBy string `env-default:"neighbourhood_group" yaml:"stratifyBy"`
	} `yaml:"split"`

	// Modeling holds the model hyperparameters.
	Modeling struct {
		// TargetColumn is the regression target.
		TargetColumn string `env-default:"price" yaml:"targetColumn"`
		// RandomForest mirrors model.Config.
		RandomForest struct {
			NEstimators     int     `env-default:"100" yaml:"nEstimators"`
			MaxDepth        int     `env-default:"15" yaml:"maxDepth"`
			MinSamplesSplit int     `env-default:"4" yaml:"minSamplesSplit"`
			MinSamplesLeaf  int     `env-default:"3" yaml:"minSamplesLeaf"`
			MaxFeatures     float64 `env-default:"0.5" yaml:"maxFeatures"`
		} `yaml:"randomForest"`
	} `yaml:"modeling"`

	// Tracking configures where runs, metrics and artifacts are recorded. With
	// an empty Endpoint only the local run directory is used.
	Tracking struct {
		// Directory is the local run and artifact store root.
		Directory string `env:"TRACKING_DIRECTORY" env-default:"mlpipe-runs" yaml:"directory"`
		// Endpoint is the base URL of the tracking API. Empty disables remote
		// tracking.
		Endpoint string `env:"TRACKING_ENDPOINT" yaml:"endpoint"`
		// APIKey authenticates against the tracking API. Environment only.
		APIKey string `env:"TRACKING_API_KEY" yaml:"-"`

		// S3 configures the object store artifact uploads used with remote
		// tracking.
		S3 struct {
			Endpoint string `env:"TRACKING_S3_ENDPOINT" yaml:"endpoint"`
			Bucket   string `env:"TRACKING_S3_BUCKET" env-default:"mlpipe-artifacts" yaml:"bucket"`
			Region   string `env:"TRACKING_S3_REGION" yaml:"region"`
			UseSSL   bool   `env:"TRACKING_S3_USE_SSL" yaml:"useSSL"`
			// AccessKey and SecretKey are environment only.
			AccessKey string `env:"TRACKING_S3_ACCESS_KEY" yaml:"-"`
			SecretKey string `env:"TRACKING_S3_SECRET_KEY" yaml:"-"`
		} `yaml:"s3"`
	} `yaml:"tracking"`
}

// Load receives the path for the yaml config file and returns a filled Config.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations no step could run with.
func (c *Config) Validate() error {
	if c.ETL.MinPrice >= c.ETL.MaxPrice {
		return serrors.With(serrors.ErrInvalidConfig,
			"etl.minPrice (%v) must be below etl.maxPrice (%v)", c.ETL.MinPrice, c.ETL.MaxPrice)
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return serrors.With(serrors.ErrInvalidConfig,
			"split.testSize must be in (0, 1), got %v", c.Split.TestSize)
	}
	if c.Split.ValSize <= 0 || c.Split.ValSize >= 1 {
		return serrors.With(serrors.ErrInvalidConfig,
			"split.valSize must be in (0, 1), got %v", c.Split.ValSize)
	}
	if c.Checks.MinRows < 0 || (c.Checks.MaxRows > 0 && c.Checks.MinRows >= c.Checks.MaxRows) {
		return serrors.With(serrors.ErrInvalidConfig,
			"checks.minRows (%d) must be below checks.maxRows (%d)", c.Checks.MinRows, c.Checks.MaxRows)
	}

	return nil
}
