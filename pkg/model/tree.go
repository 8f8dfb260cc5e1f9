package model

import (
	"math"
	"math/rand"
	"sort"
)

// Node is a single node of a regression tree. Fields are exported so trees
// survive gob encoding inside a model bundle.
type Node struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *Node
	Right     *Node
}

// Tree is a single CART regression tree grown with variance-reduction splits.
type Tree struct {
	Root *Node
}

// treeParams carries the grow-time hyperparameters. maxFeatures is the number
// of candidate features sampled at each split.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

// growTree fits a regression tree on the rows of X selected by indices.
// importances receives the summed squared-error decrease per feature.
func growTree(X [][]float64, y []float64, indices []int, p treeParams, rng *rand.Rand, importances []float64) *Tree {
	return &Tree{Root: growNode(X, y, indices, 0, p, rng, importances)}
}

func growNode(X [][]float64, y []float64, indices []int, depth int, p treeParams, rng *rand.Rand, importances []float64) *Node {
	mean := meanAt(y, indices)
	if len(indices) < p.minSamplesSplit || (p.maxDepth > 0 && depth >= p.maxDepth) {
		return &Node{Leaf: true, Value: mean}
	}

	feature, threshold, decrease, ok := bestSplit(X, y, indices, p, rng)
	if !ok {
		return &Node{Leaf: true, Value: mean}
	}
	importances[feature] += decrease

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      growNode(X, y, left, depth+1, p, rng, importances),
		Right:     growNode(X, y, right, depth+1, p, rng, importances),
	}
}

// bestSplit scans a random subset of features for the threshold with the
// largest squared-error decrease that leaves at least minSamplesLeaf rows on
// each side.
func bestSplit(X [][]float64, y []float64, indices []int, p treeParams, rng *rand.Rand) (feature int, threshold, decrease float64, ok bool) {
	numFeatures := len(X[0])
	candidates := rng.Perm(numFeatures)
	if p.maxFeatures > 0 && p.maxFeatures < numFeatures {
		candidates = candidates[:p.maxFeatures]
	}

	parent := sseAt(y, indices)
	best := -1.0

	pairs := make([]xy, len(indices))

	for _, f := range candidates {
		for i, idx := range indices {
			pairs[i] = xy{x: X[idx][f], y: y[idx]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].x < pairs[b].x })

		var leftSum, leftSq float64
		total, totalSq := sums(pairs)
		n := len(pairs)

		for i := 0; i < n-1; i++ {
			leftSum += pairs[i].y
			leftSq += pairs[i].y * pairs[i].y

			// Splitting between equal feature values is not a valid threshold.
			if pairs[i].x == pairs[i+1].x {
				continue
			}

			leftN := i + 1
			rightN := n - leftN
			if leftN < p.minSamplesLeaf || rightN < p.minSamplesLeaf {
				continue
			}

			leftSSE := leftSq - leftSum*leftSum/float64(leftN)
			rightSum := total - leftSum
			rightSSE := (totalSq - leftSq) - rightSum*rightSum/float64(rightN)

			gain := parent - leftSSE - rightSSE
			if gain > best {
				best = gain
				feature = f
				threshold = (pairs[i].x + pairs[i+1].x) / 2
			}
		}
	}

	if best <= 0 {
		return 0, 0, 0, false
	}

	return feature, threshold, best, true
}

// predict walks the tree for a single feature vector.
func (t *Tree) predict(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}

	return node.Value
}

func meanAt(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}

	return sum / float64(len(indices))
}

func sseAt(y []float64, indices []int) float64 {
	var sum, sq float64
	for _, i := range indices {
		sum += y[i]
		sq += y[i] * y[i]
	}
	if len(indices) == 0 {
		return 0
	}

	return sq - sum*sum/float64(len(indices))
}

type xy struct{ x, y float64 }

func sums(pairs []xy) (total, totalSq float64) {
	for _, p := range pairs {
		total += p.y
		totalSq += p.y * p.y
	}

	return total, totalSq
}

// depth reports the maximum depth of the tree, used by tests.
func (t *Tree) depth() int {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil || n.Leaf {
			return 0
		}

		return 1 + int(math.Max(float64(walk(n.Left)), float64(walk(n.Right))))
	}

	return walk(t.Root)
}
