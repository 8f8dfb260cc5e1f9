// Package model implements the random forest regressor trained by the
// pipeline, its evaluation metrics, and the persisted model bundle.
package model

import (
	"math"
	"math/rand"
	"sync"

	"mlpipe/pkg/serrors"
)

// Config holds the random forest hyperparameters. Zero values fall back to
// the defaults applied by New.
type Config struct {
	// NEstimators is the number of trees in the forest.
	NEstimators int `json:"n_estimators"`
	// MaxDepth limits tree depth; 0 means unlimited.
	MaxDepth int `json:"max_depth"`
	// MinSamplesSplit is the minimum number of rows required to split a node.
	MinSamplesSplit int `json:"min_samples_split"`
	// MinSamplesLeaf is the minimum number of rows required in a leaf.
	MinSamplesLeaf int `json:"min_samples_leaf"`
	// MaxFeatures is the fraction of features considered per split; values
	// outside (0, 1] mean all features.
	MaxFeatures float64 `json:"max_features"`
	// Seed makes training reproducible. Each tree derives its own seed from it.
	Seed int64 `json:"seed"`
}

// RandomForest is an ensemble of bootstrapped regression trees. Predictions
// are the mean of the per-tree predictions.
type RandomForest struct {
	Config      Config
	Trees       []*Tree
	NumFeatures int
	// Importances holds the normalized squared-error decrease attributed to
	// each feature across all trees. It sums to 1 after a successful Fit.
	Importances []float64
}

// New creates a RandomForest with defaults filled in for unset fields.
func New(cfg Config) *RandomForest {
	if cfg.NEstimators <= 0 {
		cfg.NEstimators = 100
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}

	return &RandomForest{Config: cfg}
}

// Fit trains the forest on the feature matrix X and target vector y. Trees
// are fitted concurrently, each with a seed derived from Config.Seed so runs
// are reproducible.
func (rf *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return serrors.With(serrors.ErrInvalidData, "random forest: empty training set")
	}
	if len(X) != len(y) {
		return serrors.With(serrors.ErrInvalidData,
			"random forest: %d feature rows but %d targets", len(X), len(y))
	}

	n := len(X)
	rf.NumFeatures = len(X[0])
	rf.Trees = make([]*Tree, rf.Config.NEstimators)

	params := treeParams{
		maxDepth:        rf.Config.MaxDepth,
		minSamplesSplit: rf.Config.MinSamplesSplit,
		minSamplesLeaf:  rf.Config.MinSamplesLeaf,
		maxFeatures:     rf.featuresPerSplit(),
	}

	perTree := make([][]float64, rf.Config.NEstimators)

	var wg sync.WaitGroup
	for i := 0; i < rf.Config.NEstimators; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			// Per-tree source keeps tree fitting contention free and seeded.
			rng := rand.New(rand.NewSource(rf.Config.Seed + int64(idx)))

			indices := make([]int, n)
			for j := range indices {
				indices[j] = rng.Intn(n)
			}

			importances := make([]float64, rf.NumFeatures)
			rf.Trees[idx] = growTree(X, y, indices, params, rng, importances)
			perTree[idx] = importances
		}(i)
	}
	wg.Wait()

	rf.Importances = make([]float64, rf.NumFeatures)
	total := 0.0
	for _, imp := range perTree {
		for f, v := range imp {
			rf.Importances[f] += v
			total += v
		}
	}
	if total > 0 {
		for f := range rf.Importances {
			rf.Importances[f] /= total
		}
	}

	return nil
}

// Predict returns the forest prediction for every row of X.
func (rf *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, serrors.With(serrors.ErrInternal, "random forest: model is not fitted")
	}

	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != rf.NumFeatures {
			return nil, serrors.With(serrors.ErrInvalidData,
				"random forest: row %d has %d features, model expects %d", i, len(x), rf.NumFeatures)
		}

		sum := 0.0
		for _, tree := range rf.Trees {
			sum += tree.predict(x)
		}
		out[i] = sum / float64(len(rf.Trees))
	}

	return out, nil
}

// featuresPerSplit converts the MaxFeatures fraction into a feature count.
func (rf *RandomForest) featuresPerSplit() int {
	if rf.NumFeatures == 0 || rf.Config.MaxFeatures <= 0 || rf.Config.MaxFeatures > 1 {
		return 0
	}

	k := int(math.Round(rf.Config.MaxFeatures * float64(rf.NumFeatures)))
	if k < 1 {
		k = 1
	}

	return k
}
