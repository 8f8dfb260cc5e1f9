// Package local implements a filesystem experiment tracker. Runs live under
// <root>/runs/<id>/run.json and artifacts under <root>/artifacts/<name>/v<N>.
// It is the default tracker and the offline backing store the remote tracker
// decorates.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mlpipe/internal/tracking"
	"mlpipe/pkg/serrors"
)

const (
	runsDir      = "runs"
	artifactsDir = "artifacts"
	runFile      = "run.json"
)

// Tracker stores runs and artifacts under a root directory.
type Tracker struct {
	root string

	// mu serializes artifact version allocation across runs.
	mu sync.Mutex
}

// New creates the store layout under root.
func New(root string) (*Tracker, error) {
	for _, dir := range []string{runsDir, artifactsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("could not create tracking directory: %w", err)
		}
	}

	return &Tracker{root: root}, nil
}

// record is the persisted form of a run.
type record struct {
	ID         string                `json:"id"`
	Project    string                `json:"project"`
	Experiment string                `json:"experiment"`
	JobType    string                `json:"job_type"`
	Name       string                `json:"name,omitempty"`
	Status     tracking.RunStatus    `json:"status"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Params     map[string]any        `json:"params,omitempty"`
	Metrics    map[string]float64    `json:"metrics,omitempty"`
	Artifacts  []tracking.Artifact   `json:"artifacts,omitempty"`
}

// Run is a single tracked run backed by a run.json file.
type Run struct {
	tracker *Tracker
	dir     string

	mu  sync.Mutex
	rec record
}

// StartRun creates the run directory and its initial record.
func (t *Tracker) StartRun(_ context.Context, cfg tracking.RunConfig) (tracking.Run, error) {
	id := uuid.NewString()
	dir := filepath.Join(t.root, runsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create run directory: %w", err)
	}

	run := &Run{
		tracker: t,
		dir:     dir,
		rec: record{
			ID:         id,
			Project:    cfg.Project,
			Experiment: cfg.Experiment,
			JobType:    cfg.JobType,
			Name:       cfg.Name,
			Status:     tracking.RunStatusRunning,
			StartedAt:  time.Now().UTC(),
		},
	}
	if err := run.save(); err != nil {
		return nil, err
	}

	return run, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.rec.ID }

// LogParams merges params into the run record.
func (r *Run) LogParams(_ context.Context, params map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec.Params == nil {
		r.rec.Params = make(map[string]any, len(params))
	}
	for k, v := range params {
		r.rec.Params[k] = v
	}

	return r.save()
}

// LogMetrics merges metrics into the run record.
func (r *Run) LogMetrics(_ context.Context, metrics map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec.Metrics == nil {
		r.rec.Metrics = make(map[string]float64, len(metrics))
	}
	for k, v := range metrics {
		r.rec.Metrics[k] = v
	}

	return r.save()
}

// LogArtifact copies the file or directory at localPath into the next version
// directory of the named artifact and records it on the run.
func (r *Run) LogArtifact(_ context.Context, name string, kind tracking.ArtifactKind, localPath string) (*tracking.Artifact, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "artifact source %q", localPath)
		}

		return nil, fmt.Errorf("could not stat artifact source: %w", err)
	}

	r.tracker.mu.Lock()
	version := r.tracker.nextVersion(name)
	versionDir := filepath.Join(r.tracker.root, artifactsDir, name, "v"+strconv.Itoa(version))
	err = os.MkdirAll(versionDir, 0o755)
	r.tracker.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("could not create artifact version directory: %w", err)
	}

	target := filepath.Join(versionDir, filepath.Base(localPath))
	digest := ""
	if info.IsDir() {
		if err := copyDir(localPath, target); err != nil {
			return nil, err
		}
	} else {
		if digest, err = copyFile(localPath, target); err != nil {
			return nil, err
		}
	}

	artifact := tracking.Artifact{
		Name:    name,
		Kind:    kind,
		Version: version,
		Digest:  digest,
		Path:    target,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Artifacts = append(r.rec.Artifacts, artifact)
	if err := r.save(); err != nil {
		return nil, err
	}

	return &artifact, nil
}

// UseArtifact resolves the latest stored version of the named artifact.
func (r *Run) UseArtifact(_ context.Context, name string) (string, error) {
	return r.tracker.LatestArtifact(name)
}

// UsePriorArtifact resolves the version stored before the latest one.
func (r *Run) UsePriorArtifact(_ context.Context, name string) (string, error) {
	return r.tracker.PriorArtifact(name)
}

// Finish writes the terminal status. Finishing twice keeps the first result.
func (r *Run) Finish(_ context.Context, status tracking.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec.FinishedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	r.rec.FinishedAt = &now
	r.rec.Status = status

	return r.save()
}

// LatestArtifact returns the path of the highest stored version of name.
func (t *Tracker) LatestArtifact(name string) (string, error) {
	versions, err := t.artifactVersions(name)
	if err != nil {
		return "", err
	}

	return t.versionPath(name, versions[len(versions)-1])
}

// PriorArtifact returns the path of the version preceding the latest one,
// typically the output of the previous pipeline run.
func (t *Tracker) PriorArtifact(name string) (string, error) {
	versions, err := t.artifactVersions(name)
	if err != nil {
		return "", err
	}
	if len(versions) < 2 {
		return "", serrors.With(serrors.ErrNotFound, "artifact %q has no prior version", name)
	}

	return t.versionPath(name, versions[len(versions)-2])
}

// artifactVersions lists the stored version numbers of name in ascending
// order.
func (t *Tracker) artifactVersions(name string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(t.root, artifactsDir, name))
	if err != nil || len(entries) == 0 {
		return nil, serrors.With(serrors.ErrNotFound, "artifact %q has no stored versions", name)
	}

	versions := make([]int, 0, len(entries))
	for _, e := range entries {
		if v, convErr := strconv.Atoi(strings.TrimPrefix(e.Name(), "v")); convErr == nil {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return nil, serrors.With(serrors.ErrNotFound, "artifact %q has no stored versions", name)
	}
	sort.Ints(versions)

	return versions, nil
}

// versionPath resolves a version directory to the stored payload: the single
// file inside it, or the directory itself for multi-file artifacts.
func (t *Tracker) versionPath(name string, version int) (string, error) {
	versionDir := filepath.Join(t.root, artifactsDir, name, "v"+strconv.Itoa(version))
	stored, err := os.ReadDir(versionDir)
	if err != nil {
		return "", fmt.Errorf("could not read artifact version: %w", err)
	}
	if len(stored) == 1 {
		return filepath.Join(versionDir, stored[0].Name()), nil
	}

	return versionDir, nil
}

// nextVersion returns the next free version number for name. Callers hold
// t.mu.
func (t *Tracker) nextVersion(name string) int {
	entries, err := os.ReadDir(filepath.Join(t.root, artifactsDir, name))
	if err != nil {
		return 1
	}

	next := 1
	for _, e := range entries {
		if v, convErr := strconv.Atoi(strings.TrimPrefix(e.Name(), "v")); convErr == nil && v >= next {
			next = v + 1
		}
	}

	return next
}

// save persists the run record. Callers hold r.mu where mutation happens.
func (r *Run) save() error {
	data, err := json.MarshalIndent(r.rec, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal run record: %w", err)
	}

	if err := os.WriteFile(filepath.Join(r.dir, runFile), data, 0o644); err != nil {
		return fmt.Errorf("could not write run record: %w", err)
	}

	return nil
}

func copyFile(src, dst string) (digest string, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("could not open artifact source: %w", err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("could not create artifact copy: %w", err)
	}

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hash), in); err != nil {
		_ = out.Close()

		return "", fmt.Errorf("could not copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("could not close artifact copy: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		_, err = copyFile(path, target)

		return err
	})
}
