package steps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/pkg/dataset"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// Check validates the cleaned dataset before any model sees it: column
// layout, known neighbourhood groups, geographic bounds, row count, price
// range and distribution drift against the reference artifact. All checks run
// and every violation is reported at once.
type Check struct{}

func (s *Check) Name() string { return "data_check" }

func (s *Check) Params(cfg *config.Config) map[string]any {
	return map[string]any{
		"min_rows":           cfg.Checks.MinRows,
		"max_rows":           cfg.Checks.MaxRows,
		"kl_threshold":       cfg.Checks.KLThreshold,
		"reference_artifact": cfg.Checks.ReferenceArtifact,
	}
}

func (s *Check) Execute(ctx context.Context, env *pipeline.Env) error {
	frame, err := useFrame(ctx, env.Run, ArtifactCleanSample)
	if err != nil {
		return err
	}

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	checkColumns(frame, report)
	checkGroups(frame, report)
	checkGeo(frame, env.Cfg, report)
	checkRowCount(frame, env.Cfg, report)
	checkPriceRange(frame, env.Cfg, report)

	divergence, err := s.checkDrift(ctx, env, frame, report)
	if err != nil {
		return err
	}

	if err := env.Run.LogMetrics(ctx, map[string]float64{
		"rows":          float64(frame.NumRows()),
		"kl_divergence": divergence,
		"violations":    float64(len(violations)),
	}); err != nil {
		return err
	}

	if len(violations) > 0 {
		logger.Error(ctx, "dataset checks failed", zap.Strings("violations", violations))

		return serrors.With(serrors.ErrInvalidData,
			"%d check(s) failed: %s", len(violations), strings.Join(violations, "; "))
	}
	logger.Info(ctx, "dataset checks passed", zap.Int("rows", frame.NumRows()))

	return nil
}

func checkColumns(f *dataset.Frame, report func(string, ...any)) {
	expected := append([]string(nil), listingColumns...)
	actual := append([]string(nil), f.Columns...)
	sort.Strings(expected)
	sort.Strings(actual)

	if len(actual) != len(expected) {
		report("expected %d columns, got %d", len(expected), len(actual))

		return
	}
	for i := range expected {
		if actual[i] != expected[i] {
			report("unexpected column set, missing or extra column near %q", actual[i])

			return
		}
	}
}

func checkGroups(f *dataset.Frame, report func(string, ...any)) {
	values, err := f.Column("neighbourhood_group")
	if err != nil {
		report("neighbourhood_group column is missing")

		return
	}

	known := make(map[string]struct{}, len(knownGroups))
	for _, g := range knownGroups {
		known[g] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, v := range values {
		if _, ok := known[v]; !ok {
			seen[v] = struct{}{}
		}
	}
	if len(seen) > 0 {
		unknown := make([]string, 0, len(seen))
		for v := range seen {
			unknown = append(unknown, v)
		}
		sort.Strings(unknown)
		report("unknown neighbourhood groups: %s", strings.Join(unknown, ", "))
	}
}

func checkGeo(f *dataset.Frame, cfg *config.Config, report func(string, ...any)) {
	lons, err := f.FloatColumn("longitude")
	if err != nil {
		report("longitude column is missing")

		return
	}
	lats, err := f.FloatColumn("latitude")
	if err != nil {
		report("latitude column is missing")

		return
	}

	outside := 0
	for i := range lons {
		if lons[i] < cfg.ETL.MinLongitude || lons[i] > cfg.ETL.MaxLongitude ||
			lats[i] < cfg.ETL.MinLatitude || lats[i] > cfg.ETL.MaxLatitude {
			outside++
		}
	}
	if outside > 0 {
		report("%d rows fall outside the geographic bounds", outside)
	}
}

func checkRowCount(f *dataset.Frame, cfg *config.Config, report func(string, ...any)) {
	if f.NumRows() < cfg.Checks.MinRows {
		report("dataset has %d rows, minimum is %d", f.NumRows(), cfg.Checks.MinRows)
	}
	if cfg.Checks.MaxRows > 0 && f.NumRows() > cfg.Checks.MaxRows {
		report("dataset has %d rows, maximum is %d", f.NumRows(), cfg.Checks.MaxRows)
	}
}

func checkPriceRange(f *dataset.Frame, cfg *config.Config, report func(string, ...any)) {
	prices, err := f.FloatColumn("price")
	if err != nil {
		report("price column is missing")

		return
	}

	outside := 0
	for _, p := range prices {
		if p < cfg.ETL.MinPrice || p > cfg.ETL.MaxPrice {
			outside++
		}
	}
	if outside > 0 {
		report("%d prices fall outside [%v, %v]", outside, cfg.ETL.MinPrice, cfg.ETL.MaxPrice)
	}
}

// checkDrift compares the neighbourhood group distribution against the
// reference artifact. When the reference is the cleaned sample itself, the
// prior version is used: the latest one is the sample under check. A missing
// reference is not a violation: the very first pipeline run has nothing to
// compare against yet.
func (s *Check) checkDrift(ctx context.Context, env *pipeline.Env, frame *dataset.Frame, report func(string, ...any)) (float64, error) {
	referenceName := env.Cfg.Checks.ReferenceArtifact

	var path string
	var err error
	if referenceName == ArtifactCleanSample {
		path, err = env.Run.UsePriorArtifact(ctx, referenceName)
	} else {
		path, err = env.Run.UseArtifact(ctx, referenceName)
	}
	if err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			logger.Warn(ctx, "no reference artifact, skipping distribution check",
				zap.String("artifact", referenceName))

			return 0, nil
		}

		return 0, err
	}

	reference, err := dataset.ReadCSVFile(path)
	if err != nil {
		return 0, err
	}

	p, err := groupDistribution(frame)
	if err != nil {
		report("distribution check: %v", err)

		return 0, nil
	}
	q, err := groupDistribution(reference)
	if err != nil {
		report("distribution check: reference: %v", err)

		return 0, nil
	}

	divergence := stat.KullbackLeibler(p, q)
	if divergence > env.Cfg.Checks.KLThreshold {
		report("neighbourhood group KL divergence %.4f exceeds threshold %.4f",
			divergence, env.Cfg.Checks.KLThreshold)
	}

	return divergence, nil
}

// groupDistribution returns the smoothed relative frequency of each known
// neighbourhood group. Smoothing keeps the divergence finite when a group is
// absent from one of the datasets.
func groupDistribution(f *dataset.Frame) ([]float64, error) {
	values, err := f.Column("neighbourhood_group")
	if err != nil {
		return nil, err
	}

	const smoothing = 1.0
	counts := make([]float64, len(knownGroups))
	total := smoothing * float64(len(knownGroups))
	for i, g := range knownGroups {
		counts[i] = smoothing
		for _, v := range values {
			if v == g {
				counts[i]++
				total++
			}
		}
	}

	for i := range counts {
		counts[i] /= total
	}

	return counts, nil
}
