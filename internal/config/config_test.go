package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mlpipe/internal/config"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "project:\n  name: nyc-rentals\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 10.0, cfg.ETL.MinPrice)
	require.Equal(t, 350.0, cfg.ETL.MaxPrice)
	require.Equal(t, 0.2, cfg.Split.TestSize)
	require.Equal(t, int64(42), cfg.Split.RandomSeed)
	require.Equal(t, "neighbourhood_group", cfg.Split.StratifyBy)
	require.Equal(t, 100, cfg.Modeling.RandomForest.NEstimators)
	require.Equal(t, 2*time.Minute, cfg.Download.Timeout)
}

func TestLoad_FileValuesWin(t *testing.T) {
	path := writeConfig(t, `
etl:
  minPrice: 25
  maxPrice: 500
modeling:
  randomForest:
    nEstimators: 10
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 25.0, cfg.ETL.MinPrice)
	require.Equal(t, 500.0, cfg.ETL.MaxPrice)
	require.Equal(t, 10, cfg.Modeling.RandomForest.NEstimators)
}

func TestLoad_RejectsInvertedPriceBounds(t *testing.T) {
	path := writeConfig(t, `
etl:
  minPrice: 400
  maxPrice: 300
`)

	_, err := config.Load(path)
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}

func TestValidate_SplitRatios(t *testing.T) {
	path := writeConfig(t, "split:\n  testSize: 1.5\n")

	_, err := config.Load(path)
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}
