package steps

import (
	"context"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"mlpipe/internal/config"
	"mlpipe/internal/pipeline"
	"mlpipe/pkg/logger"
	"mlpipe/pkg/serrors"
)

// Split partitions the cleaned dataset into a trainval set and a held-out
// test set. The split is seeded and stratified so the test set keeps the
// per-stratum proportions of the full dataset.
type Split struct{}

func (s *Split) Name() string { return "data_split" }

func (s *Split) Params(cfg *config.Config) map[string]any {
	return map[string]any{
		"test_size":   cfg.Split.TestSize,
		"random_seed": cfg.Split.RandomSeed,
		"stratify_by": cfg.Split.StratifyBy,
	}
}

func (s *Split) Execute(ctx context.Context, env *pipeline.Env) error {
	frame, err := useFrame(ctx, env.Run, ArtifactCleanSample)
	if err != nil {
		return err
	}
	if frame.NumRows() < 2 {
		return serrors.With(serrors.ErrInvalidData, "dataset has %d rows, cannot split", frame.NumRows())
	}

	strata, err := frame.Column(env.Cfg.Split.StratifyBy)
	if err != nil {
		return err
	}

	groups := make(map[string][]int)
	for i, v := range strata {
		groups[v] = append(groups[v], i)
	}

	rng := rand.New(rand.NewSource(env.Cfg.Split.RandomSeed))

	var trainvalIdx, testIdx []int
	for _, indices := range orderedGroups(groups) {
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		cut := int(float64(len(indices)) * env.Cfg.Split.TestSize)
		testIdx = append(testIdx, indices[:cut]...)
		trainvalIdx = append(trainvalIdx, indices[cut:]...)
	}

	trainval := frame.Select(trainvalIdx)
	test := frame.Select(testIdx)

	logger.Info(ctx, "dataset split",
		zap.Int("trainval_rows", trainval.NumRows()),
		zap.Int("test_rows", test.NumRows()))

	if err := env.Run.LogMetrics(ctx, map[string]float64{
		"trainval_rows": float64(trainval.NumRows()),
		"test_rows":     float64(test.NumRows()),
	}); err != nil {
		return err
	}

	if err := logFrame(ctx, env, trainval, ArtifactTrainvalData); err != nil {
		return err
	}

	return logFrame(ctx, env, test, ArtifactTestData)
}

// orderedGroups returns the stratum index lists in a deterministic order so
// the same seed always produces the same split.
func orderedGroups(groups map[string][]int) [][]int {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]int, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k])
	}

	return out
}
