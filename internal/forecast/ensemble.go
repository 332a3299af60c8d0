package forecast

import (
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble sizes
const (
	ForestTrees       = 100
	ForestMaxDepth    = 10
	ForestMinSplit    = 5
	BoostingTrees     = 100
	BoostingMaxDepth  = 3
	BoostingLearnRate = 0.1
)

// regressor predicts a target from one feature row
type regressor interface {
	predict(x []float64) float64
}

// forest averages bootstrap-sampled regression trees
type forest struct {
	trees []*node
}

// fitForest draws every bootstrap sample from a PCG source seeded with seed
// before growing the trees in parallel, so the result depends only on seed
func fitForest(x [][]float64, y []float64, seed uint64) *forest {
	rng := rand.New(rand.NewPCG(seed, seed))
	n := len(y)
	samples := make([][]int, ForestTrees)
	for t := range samples {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.IntN(n)
		}
		samples[t] = idx
	}

	f := &forest{trees: make([]*node, ForestTrees)}
	params := treeParams{maxDepth: ForestMaxDepth, minSplit: ForestMinSplit}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range samples {
		g.Go(func() error {
			f.trees[t] = fitTree(x, y, samples[t], params)
			return nil
		})
	}
	_ = g.Wait()

	return f
}

func (f *forest) predict(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// boosting is a squared-loss gradient boosted ensemble
type boosting struct {
	init  float64
	rate  float64
	trees []*node
}

func fitBoosting(x [][]float64, y []float64) *boosting {
	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}

	b := &boosting{init: meanAt(y, all), rate: BoostingLearnRate}
	current := make([]float64, len(y))
	for i := range current {
		current[i] = b.init
	}

	residual := make([]float64, len(y))
	params := treeParams{maxDepth: BoostingMaxDepth, minSplit: 2}
	for m := 0; m < BoostingTrees; m++ {
		for i := range y {
			residual[i] = y[i] - current[i]
		}
		tree := fitTree(x, residual, all, params)
		b.trees = append(b.trees, tree)
		for i := range current {
			current[i] += b.rate * tree.predict(x[i])
		}
	}
	return b
}

func (b *boosting) predict(x []float64) float64 {
	out := b.init
	for _, t := range b.trees {
		out += b.rate * t.predict(x)
	}
	return out
}
