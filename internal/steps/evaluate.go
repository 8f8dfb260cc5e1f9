package steps

import (
	"context"

	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/pkg/dataset"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/model"
)

// Evaluate scores the exported model bundle against the held-out test set.
// It runs only when a model has been promoted, so it reads the latest
// model_export artifact rather than retraining anything.
type Evaluate struct{}

func (s *Evaluate) Name() string { return "test_regression_model" }

func (s *Evaluate) Params(cfg *config.Config) map[string]any {
	return map[string]any{"target_column": cfg.Modeling.TargetColumn}
}

func (s *Evaluate) Execute(ctx context.Context, env *pipeline.Env) error {
	bundleDir, err := env.Run.UseArtifact(ctx, ArtifactModelExport)
	if err != nil {
		return err
	}
	bundle, err := model.LoadBundle(bundleDir)
	if err != nil {
		return err
	}

	frame, err := useFrame(ctx, env.Run, ArtifactTestData)
	if err != nil {
		return err
	}

	// The bundle's own feature list and vocabulary guarantee the test rows
	// are encoded exactly as the training rows were.
	instances, err := dataset.ToInstances(frame, bundle.Features, bundle.Target, bundle.Vocabulary)
	if err != nil {
		return err
	}
	testX, testY, err := dataset.Matrix(instances)
	if err != nil {
		return err
	}

	pred, err := bundle.Forest.Predict(testX)
	if err != nil {
		return err
	}
	eval, err := model.Evaluate(pred, testY)
	if err != nil {
		return err
	}

	logger.Info(ctx, "test metrics",
		zap.Int("test_rows", len(testY)),
		zap.Float64("mae", eval.MAE), zap.Float64("rmse", eval.RMSE), zap.Float64("r2", eval.R2))

	return env.Run.LogMetrics(ctx, eval.Map())
}
