package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/internal/steps"
	"mlpipe/pkg/logger"
)

func runCommand(cfg *config.Config) *cobra.Command {
	var stepNames []string
	var overrides []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Executes the pipeline steps in order",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := config.ApplyOverrides(cfg, overrides); err != nil {
				logger.Fatal(ctx, "could not apply overrides", zap.Error(err))
			}
			if err := cfg.Validate(); err != nil {
				logger.Fatal(ctx, "invalid configuration", zap.Error(err))
			}

			registry := pipeline.NewRegistry(steps.All()...)

			requested := stepNames
			if len(requested) == 0 {
				requested = cfg.Steps
			}
			selected, err := registry.Select(requested)
			if err != nil {
				logger.Fatal(ctx, "could not resolve steps", zap.Error(err))
			}

			runner := pipeline.NewRunner(cfg, getTracker(ctx, cfg))
			if err := runner.Run(ctx, selected); err != nil {
				logger.Fatal(ctx, "pipeline failed", zap.Error(err))
			}
			logger.Info(ctx, "pipeline finished")
		},
	}

	cmd.Flags().StringSliceVar(&stepNames, "steps", nil,
		"Steps to execute in order, defaults to the configured list")
	cmd.Flags().StringArrayVar(&overrides, "set", nil,
		"Config overrides as key=value, e.g. --set etl.maxPrice=400")

	return cmd
}
