// Package main provides the CLI entrypoint for the rental price pipeline.
// It wires subcommands (run, steps), loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/tracking"
	"mlpipe/internal/tracking/local"
	"mlpipe/internal/tracking/remote"
	"mlpipe/pkg/logger"
)

// getTracker builds the experiment tracker: always the local store, decorated
// with the remote API client when an endpoint is configured.
func getTracker(ctx context.Context, cfg *config.Config) tracking.Tracker {
	store, err := local.New(cfg.Tracking.Directory)
	if err != nil {
		logger.Fatal(ctx, "could not open local tracking store", zap.Error(err))
	}

	if cfg.Tracking.Endpoint == "" {
		return store
	}

	uploader, err := remote.NewS3Uploader(ctx, remote.S3Options{
		Endpoint:  cfg.Tracking.S3.Endpoint,
		Bucket:    cfg.Tracking.S3.Bucket,
		Region:    cfg.Tracking.S3.Region,
		AccessKey: cfg.Tracking.S3.AccessKey,
		SecretKey: cfg.Tracking.S3.SecretKey,
		UseSSL:    cfg.Tracking.S3.UseSSL,
	})
	if err != nil {
		logger.Fatal(ctx, "could not connect to artifact storage", zap.Error(err))
	}

	return remote.New(remote.Options{
		BaseURL: cfg.Tracking.Endpoint,
		APIKey:  cfg.Tracking.APIKey,
	}, uploader, store)
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use: "mlpipe",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	configPath := flag.String("c", "config.yml", "The config file path")
	flag.Parse()

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(cfg),
		stepsCommand(),
	)

	err = rootCmd.Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
