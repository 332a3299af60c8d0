package forecast

import (
	"slices"
)

// treeParams bound the growth of a regression tree
type treeParams struct {
	maxDepth int
	minSplit int
}

// node is a CART regression tree node. Leaves carry the mean target of the
// samples that reached them.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
}

func (n *node) leaf() bool {
	return n.left == nil
}

func (n *node) predict(x []float64) float64 {
	for !n.leaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// fitTree grows a tree over the rows of x named by idx, splitting on the
// threshold that minimizes the summed squared error of the two children
func fitTree(x [][]float64, y []float64, idx []int, p treeParams) *node {
	return grow(x, y, idx, 0, p)
}

func grow(x [][]float64, y []float64, idx []int, depth int, p treeParams) *node {
	n := &node{value: meanAt(y, idx)}
	if depth >= p.maxDepth || len(idx) < p.minSplit || len(idx) < 2 {
		return n
	}

	feature, threshold, ok := bestSplit(x, y, idx)
	if !ok {
		return n
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	n.feature = feature
	n.threshold = threshold
	n.left = grow(x, y, left, depth+1, p)
	n.right = grow(x, y, right, depth+1, p)
	return n
}

func bestSplit(x [][]float64, y []float64, idx []int) (int, float64, bool) {
	count := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	bestSSE := sumSq - sum*sum/float64(count)
	if bestSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeature, bestThreshold, found := 0, 0.0, false
	sorted := make([]int, count)
	for f := range x[idx[0]] {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, b int) int {
			switch {
			case x[a][f] < x[b][f]:
				return -1
			case x[a][f] > x[b][f]:
				return 1
			}
			return 0
		})

		var leftSum, leftSq float64
		for i := 0; i < count-1; i++ {
			v := y[sorted[i]]
			leftSum += v
			leftSq += v * v

			cur, next := x[sorted[i]][f], x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nl, nr := float64(i+1), float64(count-i-1)
			rightSum, rightSq := sum-leftSum, sumSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
