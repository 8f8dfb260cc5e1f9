package config_test

import (
	"testing"
	"time"

	"mlpipe/internal/config"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func TestApplyOverrides_TypedValues(t *testing.T) {
	var cfg config.Config

	err := config.ApplyOverrides(&cfg, []string{
		"etl.minPrice=15.5",
		"modeling.randomForest.nEstimators=200",
		"split.randomSeed=7",
		"split.stratifyBy=room_type",
		"download.timeout=30s",
		"tracking.s3.useSSL=true",
	})
	require.NoError(t, err)

	require.Equal(t, 15.5, cfg.ETL.MinPrice)
	require.Equal(t, 200, cfg.Modeling.RandomForest.NEstimators)
	require.Equal(t, int64(7), cfg.Split.RandomSeed)
	require.Equal(t, "room_type", cfg.Split.StratifyBy)
	require.Equal(t, 30*time.Second, cfg.Download.Timeout)
	require.True(t, cfg.Tracking.S3.UseSSL)
}

func TestApplyOverrides_StepList(t *testing.T) {
	var cfg config.Config

	require.NoError(t, config.ApplyOverrides(&cfg, []string{"steps=download, basic_cleaning"}))
	require.Equal(t, []string{"download", "basic_cleaning"}, cfg.Steps)
}

func TestApplyOverrides_UnknownKey(t *testing.T) {
	var cfg config.Config

	err := config.ApplyOverrides(&cfg, []string{"etl.min_price=10"})
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}

func TestApplyOverrides_SectionKey(t *testing.T) {
	var cfg config.Config

	err := config.ApplyOverrides(&cfg, []string{"etl=10"})
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}

func TestApplyOverrides_BadValue(t *testing.T) {
	var cfg config.Config

	err := config.ApplyOverrides(&cfg, []string{"modeling.randomForest.nEstimators=many"})
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}

func TestApplyOverrides_MissingEquals(t *testing.T) {
	var cfg config.Config

	err := config.ApplyOverrides(&cfg, []string{"etl.minPrice"})
	require.ErrorIs(t, err, serrors.ErrInvalidConfig)
}
