package steps

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// Download fetches the raw listings CSV from the configured source and tracks
// it as the raw_data.csv artifact.
type Download struct {
	// Client is optional; http.DefaultClient is used when nil.
	Client *http.Client
}

func (s *Download) Name() string { return "download" }

func (s *Download) Params(cfg *config.Config) map[string]any {
	return map[string]any{
		"url":     cfg.Download.URL,
		"timeout": cfg.Download.Timeout.String(),
	}
}

func (s *Download) Execute(ctx context.Context, env *pipeline.Env) error {
	if env.Cfg.Download.URL == "" {
		return serrors.With(serrors.ErrInvalidConfig, "download.url is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, env.Cfg.Download.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.Cfg.Download.URL, nil)
	if err != nil {
		return serrors.Wrap(serrors.ErrInvalidConfig, err, "download.url %q is not usable", env.Cfg.Download.URL)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return serrors.Wrap(serrors.ErrExternal, err, "could not fetch source dataset")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serrors.With(serrors.ErrExternal, "source returned %d for %q", resp.StatusCode, env.Cfg.Download.URL)
	}

	path := filepath.Join(env.WorkDir, ArtifactRawData)
	out, err := os.Create(path)
	if err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not create download target")
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()

		return serrors.Wrap(serrors.ErrExternal, err, "source transfer interrupted")
	}
	if err := out.Close(); err != nil {
		return serrors.Wrap(serrors.ErrInternal, err, "could not finish download target")
	}

	logger.Info(ctx, "source dataset fetched", zap.Int64("bytes", written))

	_, err = env.Run.LogArtifact(ctx, ArtifactRawData, tracking.ArtifactDataset, path)

	return err
}
