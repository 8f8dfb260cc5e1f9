package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// Runner executes steps sequentially, each under its own tracked run. The
// first failing step aborts the pipeline; its run is finished as FAILED and
// the remaining steps are skipped.
type Runner struct {
	cfg     *config.Config
	tracker tracking.Tracker
}

// NewRunner creates a Runner recording against the given tracker.
func NewRunner(cfg *config.Config, tracker tracking.Tracker) *Runner {
	return &Runner{cfg: cfg, tracker: tracker}
}

// Run executes the given steps in order.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return serrors.Wrap(serrors.ErrCanceled, err, "pipeline canceled before step %q", step.Name())
		}

		if err := r.runStep(ctx, step); err != nil {
			return fmt.Errorf("step %q failed: %w", step.Name(), err)
		}
	}

	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	run, err := r.tracker.StartRun(ctx, tracking.RunConfig{
		Project:    r.cfg.Project.Name,
		Experiment: r.cfg.Project.Experiment,
		JobType:    step.Name(),
		Name:       step.Name(),
	})
	if err != nil {
		return err
	}

	ctx = logger.WithFields(ctx, zap.String("step", step.Name()), zap.String("run", run.ID()))
	logger.Info(ctx, "step started")
	started := time.Now()

	err = r.executeStep(ctx, step, run)

	status := tracking.RunStatusFinished
	if err != nil {
		status = tracking.RunStatusFailed
	}
	if finishErr := run.Finish(ctx, status); finishErr != nil && err == nil {
		err = finishErr
	}

	if err != nil {
		logger.Error(ctx, "step failed", zap.Error(err), zap.Duration("took", time.Since(started)))

		return err
	}
	logger.Info(ctx, "step finished", zap.Duration("took", time.Since(started)))

	return nil
}

func (r *Runner) executeStep(ctx context.Context, step Step, run tracking.Run) error {
	if params := step.Params(r.cfg); len(params) > 0 {
		if err := run.LogParams(ctx, params); err != nil {
			return err
		}
	}

	workDir, err := os.MkdirTemp("", "mlpipe-"+step.Name()+"-*")
	if err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not create step work dir")
	}
	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	return step.Execute(ctx, &Env{Cfg: r.cfg, Run: run, WorkDir: workDir})
}
