package model

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mlpipe/pkg/dataset"
	"mlpipe/pkg/serrors"
)

const (
	bundleModelFile    = "model.gob"
	bundleMetadataFile = "metadata.json"
)

// Bundle is the self-contained model artifact exported by training: the
// fitted forest plus everything needed to encode new rows the same way the
// training rows were encoded.
type Bundle struct {
	Forest     *RandomForest
	Features   []string
	Target     string
	Vocabulary dataset.Vocabulary
	TrainedAt  time.Time
}

// bundleMetadata is the human-readable companion written next to the encoded
// model so artifact listings show what the bundle contains.
type bundleMetadata struct {
	Features  []string  `json:"features"`
	Target    string    `json:"target"`
	Config    Config    `json:"config"`
	TrainedAt time.Time `json:"trained_at"`
}

// Save writes the bundle into dir as a gob-encoded model plus a JSON
// metadata file.
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create bundle directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, bundleModelFile))
	if err != nil {
		return fmt.Errorf("could not create model file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(b); err != nil {
		_ = f.Close()

		return fmt.Errorf("could not encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close model file: %w", err)
	}

	meta, err := json.MarshalIndent(bundleMetadata{
		Features:  b.Features,
		Target:    b.Target,
		Config:    b.Forest.Config,
		TrainedAt: b.TrainedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal bundle metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, bundleMetadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("could not write bundle metadata: %w", err)
	}

	return nil
}

// LoadBundle reads a bundle previously written by Save.
func LoadBundle(dir string) (*Bundle, error) {
	f, err := os.Open(filepath.Join(dir, bundleModelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "model bundle in %q", dir)
		}

		return nil, fmt.Errorf("could not open model file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidData, err, "could not decode model bundle")
	}

	return &b, nil
}
