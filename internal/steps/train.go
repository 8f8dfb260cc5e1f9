package steps

import (
	"context"
	"math/rand"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/dataset"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/model"
	"mlpipe/pkg/serrors"
)

// Train fits the random forest on the trainval dataset, reports validation
// metrics and exports the model bundle together with a feature importance
// plot.
type Train struct{}

func (s *Train) Name() string { return "train_random_forest" }

func (s *Train) Params(cfg *config.Config) map[string]any {
	rf := cfg.Modeling.RandomForest

	return map[string]any{
		"target_column":     cfg.Modeling.TargetColumn,
		"val_size":          cfg.Split.ValSize,
		"random_seed":       cfg.Split.RandomSeed,
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
	}
}

func (s *Train) Execute(ctx context.Context, env *pipeline.Env) error {
	frame, err := useFrame(ctx, env.Run, ArtifactTrainvalData)
	if err != nil {
		return err
	}

	vocab, err := dataset.BuildVocabulary(frame, categoricalColumns)
	if err != nil {
		return err
	}

	// Seeded carve-out, so the logged random_seed fully determines the
	// validation metrics.
	rng := rand.New(rand.NewSource(env.Cfg.Split.RandomSeed))
	perm := rng.Perm(frame.NumRows())
	cut := int(float64(frame.NumRows()) * env.Cfg.Split.ValSize)
	if cut == 0 || cut == frame.NumRows() {
		return serrors.With(serrors.ErrInvalidData,
			"validation carve-out of %d rows from %d, dataset too small", cut, frame.NumRows())
	}
	valFrame := frame.Select(perm[:cut])
	trainFrame := frame.Select(perm[cut:])

	trainInstances, err := dataset.ToInstances(trainFrame, featureColumns, env.Cfg.Modeling.TargetColumn, vocab)
	if err != nil {
		return err
	}
	valInstances, err := dataset.ToInstances(valFrame, featureColumns, env.Cfg.Modeling.TargetColumn, vocab)
	if err != nil {
		return err
	}

	trainX, trainY, err := dataset.Matrix(trainInstances)
	if err != nil {
		return err
	}
	valX, valY, err := dataset.Matrix(valInstances)
	if err != nil {
		return err
	}

	rf := env.Cfg.Modeling.RandomForest
	forest := model.New(model.Config{
		NEstimators:     rf.NEstimators,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
		MaxFeatures:     rf.MaxFeatures,
		Seed:            env.Cfg.Split.RandomSeed,
	})

	logger.Info(ctx, "fitting random forest",
		zap.Int("train_rows", len(trainX)),
		zap.Int("val_rows", len(valX)),
		zap.Int("n_estimators", forest.Config.NEstimators))

	started := time.Now()
	if err := forest.Fit(trainX, trainY); err != nil {
		return err
	}
	logger.Info(ctx, "random forest fitted", zap.Duration("took", time.Since(started)))

	pred, err := forest.Predict(valX)
	if err != nil {
		return err
	}
	eval, err := model.Evaluate(pred, valY)
	if err != nil {
		return err
	}
	logger.Info(ctx, "validation metrics",
		zap.Float64("mae", eval.MAE), zap.Float64("rmse", eval.RMSE), zap.Float64("r2", eval.R2))

	if err := env.Run.LogMetrics(ctx, eval.Map()); err != nil {
		return err
	}

	bundle := &model.Bundle{
		Forest:     forest,
		Features:   featureColumns,
		Target:     env.Cfg.Modeling.TargetColumn,
		Vocabulary: vocab,
		TrainedAt:  time.Now().UTC(),
	}

	bundleDir := filepath.Join(env.WorkDir, ArtifactModelExport)
	if err := bundle.Save(bundleDir); err != nil {
		return err
	}
	if _, err := env.Run.LogArtifact(ctx, ArtifactModelExport, tracking.ArtifactModel, bundleDir); err != nil {
		return err
	}

	plotPath := filepath.Join(env.WorkDir, ArtifactFeatureImportance)
	if err := renderImportances(forest.Importances, featureColumns, plotPath); err != nil {
		return err
	}
	_, err = env.Run.LogArtifact(ctx, ArtifactFeatureImportance, tracking.ArtifactImage, plotPath)

	return err
}

// renderImportances draws the normalized feature importances as a bar chart.
func renderImportances(importances []float64, features []string, path string) error {
	p := plot.New()
	p.Title.Text = "Feature importance"
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(plotter.Values(importances), vg.Points(18))
	if err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not build importance chart")
	}
	p.Add(bars)
	p.NominalX(features...)
	p.X.Tick.Label.Rotation = 0.8
	p.X.Tick.Label.XAlign = -1

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not render importance chart")
	}

	return nil
}
