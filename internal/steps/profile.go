package steps

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/dataset"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// Profile summarizes the raw dataset before cleaning: per-column statistics
// as a JSON report plus a price histogram. It helps judge whether the source
// export looks like previous ones before the pipeline spends time on it.
type Profile struct{}

func (s *Profile) Name() string { return "profile" }

func (s *Profile) Params(_ *config.Config) map[string]any {
	return map[string]any{"input": ArtifactRawData}
}

// columnProfile is one entry of the profile report.
type columnProfile struct {
	Column   string `json:"column"`
	Missing  int    `json:"missing"`
	Distinct int    `json:"distinct,omitempty"`
	Top      string `json:"top,omitempty"`

	Numeric *numericProfile `json:"numeric,omitempty"`
}

type numericProfile struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

func (s *Profile) Execute(ctx context.Context, env *pipeline.Env) error {
	frame, err := useFrame(ctx, env.Run, ArtifactRawData)
	if err != nil {
		return err
	}

	report := struct {
		Rows    int             `json:"rows"`
		Columns []columnProfile `json:"columns"`
	}{Rows: frame.NumRows()}

	for _, column := range frame.Columns {
		profile, err := profileColumn(frame, column)
		if err != nil {
			return err
		}
		report.Columns = append(report.Columns, profile)
	}

	logger.Info(ctx, "dataset profiled",
		zap.Int("rows", report.Rows), zap.Int("columns", len(report.Columns)))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not marshal profile report")
	}
	reportPath := filepath.Join(env.WorkDir, ArtifactProfile)
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not write profile report")
	}
	if _, err := env.Run.LogArtifact(ctx, ArtifactProfile, tracking.ArtifactReport, reportPath); err != nil {
		return err
	}

	histPath := filepath.Join(env.WorkDir, ArtifactPriceHist)
	if err := renderPriceHistogram(frame, env.Cfg.Modeling.TargetColumn, histPath); err != nil {
		return err
	}
	_, err = env.Run.LogArtifact(ctx, ArtifactPriceHist, tracking.ArtifactImage, histPath)

	return err
}

func profileColumn(f *dataset.Frame, column string) (columnProfile, error) {
	raw, err := f.Column(column)
	if err != nil {
		return columnProfile{}, err
	}

	profile := columnProfile{Column: column}
	counts := make(map[string]int)
	for _, v := range raw {
		if v == "" {
			profile.Missing++

			continue
		}
		counts[v]++
	}
	profile.Distinct = len(counts)

	top, topCount := "", 0
	for v, c := range counts {
		if c > topCount || (c == topCount && v < top) {
			top, topCount = v, c
		}
	}
	profile.Top = top

	floats, err := f.FloatColumn(column)
	if err != nil {
		return columnProfile{}, err
	}
	numeric := make([]float64, 0, len(floats))
	for _, v := range floats {
		if !math.IsNaN(v) {
			numeric = append(numeric, v)
		}
	}

	// Columns like last_review are dates; a handful of parsable values does
	// not make a column numeric.
	if len(numeric) == 0 || len(numeric) < len(raw)-profile.Missing {
		return profile, nil
	}

	sort.Float64s(numeric)
	mean, std := stat.MeanStdDev(numeric, nil)
	if math.IsNaN(std) {
		std = 0
	}
	profile.Numeric = &numericProfile{
		Count:  len(numeric),
		Mean:   mean,
		StdDev: std,
		Min:    numeric[0],
		Q25:    stat.Quantile(0.25, stat.Empirical, numeric, nil),
		Median: stat.Quantile(0.5, stat.Empirical, numeric, nil),
		Q75:    stat.Quantile(0.75, stat.Empirical, numeric, nil),
		Max:    numeric[len(numeric)-1],
	}

	return profile, nil
}

// renderPriceHistogram draws the distribution of the target column.
func renderPriceHistogram(f *dataset.Frame, target, path string) error {
	values, err := f.FloatColumn(target)
	if err != nil {
		return err
	}

	prices := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			prices = append(prices, v)
		}
	}
	if len(prices) == 0 {
		return serrors.With(serrors.ErrInvalidData, "no numeric %q values to plot", target)
	}

	p := plot.New()
	p.Title.Text = "Nightly price distribution"
	p.X.Label.Text = target
	p.Y.Label.Text = "listings"

	hist, err := plotter.NewHist(prices, 50)
	if err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not build price histogram")
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not render price histogram")
	}

	return nil
}
