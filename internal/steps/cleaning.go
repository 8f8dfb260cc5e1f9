package steps

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// lastReviewLayouts are the date formats seen in the source exports.
var lastReviewLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006"}

// Cleaning drops listings with out-of-range prices or coordinates outside the
// city bounding box and normalizes the last_review date format. The result is
// tracked as clean_sample.csv.
type Cleaning struct{}

func (s *Cleaning) Name() string { return "basic_cleaning" }

func (s *Cleaning) Params(cfg *config.Config) map[string]any {
	return map[string]any{
		"min_price":     cfg.ETL.MinPrice,
		"max_price":     cfg.ETL.MaxPrice,
		"min_longitude": cfg.ETL.MinLongitude,
		"max_longitude": cfg.ETL.MaxLongitude,
		"min_latitude":  cfg.ETL.MinLatitude,
		"max_latitude":  cfg.ETL.MaxLatitude,
	}
}

func (s *Cleaning) Execute(ctx context.Context, env *pipeline.Env) error {
	frame, err := useFrame(ctx, env.Run, ArtifactRawData)
	if err != nil {
		return err
	}

	priceIdx, ok := frame.ColumnIndex("price")
	if !ok {
		return serrors.With(serrors.ErrInvalidData, "raw dataset has no price column")
	}
	lonIdx, ok := frame.ColumnIndex("longitude")
	if !ok {
		return serrors.With(serrors.ErrInvalidData, "raw dataset has no longitude column")
	}
	latIdx, ok := frame.ColumnIndex("latitude")
	if !ok {
		return serrors.With(serrors.ErrInvalidData, "raw dataset has no latitude column")
	}

	etl := env.Cfg.ETL
	cleaned := frame.Filter(func(row []string) bool {
		price, err := strconv.ParseFloat(row[priceIdx], 64)
		if err != nil || price < etl.MinPrice || price > etl.MaxPrice {
			return false
		}

		lon, err := strconv.ParseFloat(row[lonIdx], 64)
		if err != nil || lon < etl.MinLongitude || lon > etl.MaxLongitude {
			return false
		}

		lat, err := strconv.ParseFloat(row[latIdx], 64)
		if err != nil || lat < etl.MinLatitude || lat > etl.MaxLatitude {
			return false
		}

		return true
	})

	if reviewIdx, ok := cleaned.ColumnIndex("last_review"); ok {
		normalizeLastReview(cleaned.Rows, reviewIdx)
	}

	dropped := frame.NumRows() - cleaned.NumRows()
	logger.Info(ctx, "dataset cleaned",
		zap.Int("rows_in", frame.NumRows()),
		zap.Int("rows_out", cleaned.NumRows()),
		zap.Int("rows_dropped", dropped))

	if err := env.Run.LogMetrics(ctx, map[string]float64{
		"rows_out":     float64(cleaned.NumRows()),
		"rows_dropped": float64(dropped),
	}); err != nil {
		return err
	}

	return logFrame(ctx, env, cleaned, ArtifactCleanSample)
}

// normalizeLastReview rewrites review dates as ISO dates. Values that match
// no known layout are blanked so downstream parsing never trips on them.
func normalizeLastReview(rows [][]string, idx int) {
	for _, row := range rows {
		if row[idx] == "" {
			continue
		}

		normalized := ""
		for _, layout := range lastReviewLayouts {
			if t, err := time.Parse(layout, row[idx]); err == nil {
				normalized = t.Format("2006-01-02")

				break
			}
		}
		row[idx] = normalized
	}
}
