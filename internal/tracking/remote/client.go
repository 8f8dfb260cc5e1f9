// Package remote implements the tracking.Tracker that mirrors runs to the
// experiment tracking API and uploads artifact payloads to object storage.
// Every record is also written to the local store, so a remote outage never
// loses the run history of a finished pipeline.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"mlpipe/internal/tracking"
	"mlpipe/internal/tracking/local"
	"mlpipe/pkg/serrors"
)

// Uploader stores artifact payloads and returns the storage URI. The minio
// implementation lives in this package; tests substitute their own.
type Uploader interface {
	Upload(ctx context.Context, key, localPath string) (string, error)
}

// Options configures the tracking API client.
type Options struct {
	// BaseURL is the tracking API root, e.g. https://track.example.com.
	BaseURL string
	// APIKey is sent as the Api-Key header on every request.
	APIKey string
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

// Tracker mirrors run records to the tracking API while keeping the local
// store authoritative for artifact resolution.
type Tracker struct {
	opts     Options
	client   *http.Client
	uploader Uploader
	store    *local.Tracker
}

// New creates a remote tracker on top of the given local store.
func New(opts Options, uploader Uploader, store *local.Tracker) *Tracker {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Tracker{opts: opts, client: client, uploader: uploader, store: store}
}

// Run pairs the local run with its remote counterpart.
type Run struct {
	tracker  *Tracker
	local    tracking.Run
	remoteID string
	project  string
}

// StartRun starts the run locally and registers it with the tracking API.
func (t *Tracker) StartRun(ctx context.Context, cfg tracking.RunConfig) (tracking.Run, error) {
	localRun, err := t.store.StartRun(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID string `json:"id"`
	}
	err = t.call(ctx, http.MethodPost, "/api/v1/runs", map[string]any{
		"project":    cfg.Project,
		"experiment": cfg.Experiment,
		"job_type":   cfg.JobType,
		"name":       cfg.Name,
		"local_id":   localRun.ID(),
	}, &created)
	if err != nil {
		// The local run still has to reach a terminal status.
		_ = localRun.Finish(ctx, tracking.RunStatusFailed)

		return nil, err
	}

	return &Run{tracker: t, local: localRun, remoteID: created.ID, project: cfg.Project}, nil
}

// ID returns the remote run identifier.
func (r *Run) ID() string { return r.remoteID }

// LogParams records params locally and on the tracking API.
func (r *Run) LogParams(ctx context.Context, params map[string]any) error {
	if err := r.local.LogParams(ctx, params); err != nil {
		return err
	}

	return r.tracker.call(ctx, http.MethodPost, "/api/v1/runs/"+r.remoteID+"/params", params, nil)
}

// LogMetrics records metrics locally and on the tracking API.
func (r *Run) LogMetrics(ctx context.Context, metrics map[string]float64) error {
	if err := r.local.LogMetrics(ctx, metrics); err != nil {
		return err
	}

	return r.tracker.call(ctx, http.MethodPost, "/api/v1/runs/"+r.remoteID+"/metrics", metrics, nil)
}

// LogArtifact stores the artifact locally, uploads the payload to object
// storage and registers the version with the tracking API.
func (r *Run) LogArtifact(ctx context.Context, name string, kind tracking.ArtifactKind, localPath string) (*tracking.Artifact, error) {
	artifact, err := r.local.LogArtifact(ctx, name, kind, localPath)
	if err != nil {
		return nil, err
	}

	key := path.Join(r.project, name, "v"+strconv.Itoa(artifact.Version), path.Base(artifact.Path))
	uri, err := r.tracker.uploader.Upload(ctx, key, artifact.Path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrExternal, err, "could not upload artifact %q", name)
	}

	err = r.tracker.call(ctx, http.MethodPost, "/api/v1/runs/"+r.remoteID+"/artifacts", map[string]any{
		"name":    artifact.Name,
		"kind":    artifact.Kind,
		"version": artifact.Version,
		"digest":  artifact.Digest,
		"uri":     uri,
	}, nil)
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

// UseArtifact resolves artifacts from the local store, which holds a copy of
// everything this pipeline has produced.
func (r *Run) UseArtifact(ctx context.Context, name string) (string, error) {
	return r.local.UseArtifact(ctx, name)
}

// UsePriorArtifact resolves the previous version from the local store.
func (r *Run) UsePriorArtifact(ctx context.Context, name string) (string, error) {
	return r.local.UsePriorArtifact(ctx, name)
}

// Finish finishes the run locally and on the tracking API.
func (r *Run) Finish(ctx context.Context, status tracking.RunStatus) error {
	if err := r.local.Finish(ctx, status); err != nil {
		return err
	}

	return r.tracker.call(ctx, http.MethodPost, "/api/v1/runs/"+r.remoteID+"/finish",
		map[string]any{"status": status}, nil)
}

// call performs one JSON request against the tracking API and decodes the
// response into out when it is non-nil.
func (t *Tracker) call(ctx context.Context, method, route string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(t.opts.BaseURL, "/")+route, reqBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", t.opts.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return serrors.Wrap(serrors.ErrExternal, err, "tracking api request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return serrors.Wrap(serrors.ErrExternal, err, "could not read tracking api response")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return serrors.With(serrors.ErrExternal, "tracking api rejected credentials: %s", strings.TrimSpace(string(data)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serrors.With(serrors.ErrExternal, "tracking api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return serrors.Wrap(serrors.ErrExternal, err, "could not decode tracking api response")
		}
	}

	return nil
}
