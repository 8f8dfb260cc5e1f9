package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mlpipe/internal/tracking"
	"mlpipe/internal/tracking/local"
	"mlpipe/internal/tracking/remote"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

// fakeUploader records uploads instead of talking to object storage.
type fakeUploader struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)

	return "s3://test-bucket/" + key, nil
}

type apiCall struct {
	Method string
	Path   string
	APIKey string
	Body   map[string]any
}

func newTrackingAPI(t *testing.T) (*httptest.Server, *[]apiCall) {
	t.Helper()

	var mu sync.Mutex
	calls := &[]apiCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		*calls = append(*calls, apiCall{
			Method: r.Method,
			Path:   r.URL.Path,
			APIKey: r.Header.Get("Api-Key"),
			Body:   body,
		})
		mu.Unlock()

		if r.URL.Path == "/api/v1/runs" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "run-123"})

			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	return server, calls
}

func newRemote(t *testing.T, baseURL string, uploader remote.Uploader) *remote.Tracker {
	t.Helper()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)

	return remote.New(remote.Options{BaseURL: baseURL, APIKey: "secret"}, uploader, store)
}

func TestStartRun_RegistersRemoteRun(t *testing.T) {
	server, calls := newTrackingAPI(t)
	tracker := newRemote(t, server.URL, &fakeUploader{})

	run, err := tracker.StartRun(context.Background(), tracking.RunConfig{
		Project: "nyc-rentals", Experiment: "development", JobType: "download",
	})
	require.NoError(t, err)
	require.Equal(t, "run-123", run.ID())

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	require.Equal(t, "/api/v1/runs", call.Path)
	require.Equal(t, "secret", call.APIKey)
	require.Equal(t, "download", call.Body["job_type"])
}

func TestRun_MetricsAndFinishMirrored(t *testing.T) {
	server, calls := newTrackingAPI(t)
	tracker := newRemote(t, server.URL, &fakeUploader{})
	ctx := context.Background()

	run, err := tracker.StartRun(ctx, tracking.RunConfig{Project: "p", Experiment: "e", JobType: "train_random_forest"})
	require.NoError(t, err)

	require.NoError(t, run.LogMetrics(ctx, map[string]float64{"mae": 31.1}))
	require.NoError(t, run.Finish(ctx, tracking.RunStatusFinished))

	require.Len(t, *calls, 3)
	require.Equal(t, "/api/v1/runs/run-123/metrics", (*calls)[1].Path)
	require.Equal(t, 31.1, (*calls)[1].Body["mae"])
	require.Equal(t, "/api/v1/runs/run-123/finish", (*calls)[2].Path)
	require.Equal(t, "FINISHED", (*calls)[2].Body["status"])
}

func TestLogArtifact_UploadsPayload(t *testing.T) {
	server, calls := newTrackingAPI(t)
	uploader := &fakeUploader{}
	tracker := newRemote(t, server.URL, uploader)
	ctx := context.Background()

	run, err := tracker.StartRun(ctx, tracking.RunConfig{Project: "nyc-rentals", Experiment: "e", JobType: "download"})
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "raw_data.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,price\n1,60\n"), 0o644))

	artifact, err := run.LogArtifact(ctx, "raw_data.csv", tracking.ArtifactDataset, src)
	require.NoError(t, err)
	require.Equal(t, 1, artifact.Version)

	require.Equal(t, []string{"nyc-rentals/raw_data.csv/v1/raw_data.csv"}, uploader.keys)

	last := (*calls)[len(*calls)-1]
	require.Equal(t, "/api/v1/runs/run-123/artifacts", last.Path)
	require.Equal(t, "s3://test-bucket/nyc-rentals/raw_data.csv/v1/raw_data.csv", last.Body["uri"])
}

func TestCall_BadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	tracker := newRemote(t, server.URL, &fakeUploader{})

	_, err := tracker.StartRun(context.Background(), tracking.RunConfig{Project: "p", Experiment: "e", JobType: "download"})
	require.ErrorIs(t, err, serrors.ErrExternal)
}

func TestStartRun_RemoteFailureFinishesLocalRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	root := t.TempDir()
	store, err := local.New(root)
	require.NoError(t, err)
	tracker := remote.New(remote.Options{BaseURL: server.URL, APIKey: "secret"}, &fakeUploader{}, store)

	_, err = tracker.StartRun(context.Background(), tracking.RunConfig{Project: "p", Experiment: "e", JobType: "download"})
	require.ErrorIs(t, err, serrors.ErrExternal)

	// The local run created before the failed registration must not be left
	// in RUNNING status.
	runs, err := os.ReadDir(filepath.Join(root, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	data, err := os.ReadFile(filepath.Join(root, "runs", runs[0].Name(), "run.json"))
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	require.Equal(t, "FAILED", record["status"])
}
