package gbdt

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/boostflow/core/rng"
)

// Tree is one regression tree contributing to a single output column.
// Nodes are stored in pre-order; children always have larger indices than
// their parent.
type Tree struct {
	Output int    `json:"output"`
	Nodes  []Node `json:"nodes"`
}

// Node is a tree node. Left == -1 marks a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// IsLeaf reports whether n is a leaf.
func (n Node) IsLeaf() bool {
	return n.Left < 0
}

// predict returns the leaf value for a given sample
func (t *Tree) predict(sample []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0.0
	}
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if sample[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the maximum depth of the tree (a single leaf has depth 0).
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// treeBuilder grows one tree from first and second order gradients.
type treeBuilder struct {
	data      []float64 // row-major feature matrix
	cols      int
	grad      []float64
	hess      []float64
	params    Params
	features  []int
	nodes     []Node
	shrinkage float64
}

// buildTree constructs a decision tree using gradients and hessians over
// the given rows. Leaf values already include the learning rate.
func buildTree(data []float64, cols int, rows []int, grad, hess []float64, params Params, src rng.Source) Tree {
	b := &treeBuilder{
		data:      data,
		cols:      cols,
		grad:      grad,
		hess:      hess,
		params:    params,
		features:  sampleFeatures(cols, params.ColsampleByTree, src),
		shrinkage: params.LearningRate,
	}
	b.buildNode(rows, 0)
	return Tree{Nodes: b.nodes}
}

// sampleRows returns the row subset used for one tree.
func sampleRows(n int, fraction float64, src rng.Source) []int {
	rows := make([]int, 0, n)
	if fraction >= 1 {
		for i := 0; i < n; i++ {
			rows = append(rows, i)
		}
		return rows
	}
	for i := 0; i < n; i++ {
		if src.Float64() < fraction {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, src.Intn(n))
	}
	return rows
}

// sampleFeatures returns a sorted subset of max(1, round(cols*fraction))
// feature indices.
func sampleFeatures(cols int, fraction float64, src rng.Source) []int {
	all := make([]int, cols)
	for i := range all {
		all[i] = i
	}
	if fraction >= 1 {
		return all
	}
	k := int(math.Round(float64(cols) * fraction))
	if k < 1 {
		k = 1
	}
	// partial Fisher–Yates
	for i := 0; i < k; i++ {
		j := i + src.Intn(cols-i)
		all[i], all[j] = all[j], all[i]
	}
	picked := all[:k]
	sort.Ints(picked)
	return picked
}

func (b *treeBuilder) leaf(sumGrad, sumHess float64) int {
	b.nodes = append(b.nodes, Node{
		Left:  -1,
		Right: -1,
		Value: b.shrinkage * leafWeight(sumGrad, sumHess, b.params.Alpha, b.params.Lambda),
	})
	return len(b.nodes) - 1
}

func (b *treeBuilder) buildNode(indices []int, depth int) int {
	// Calculate sum of gradients and hessians for this node
	sumGrad, sumHess := 0.0, 0.0
	for _, idx := range indices {
		sumGrad += b.grad[idx]
		sumHess += b.hess[idx]
	}

	// Check stopping conditions
	if (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || len(indices) < 2*b.params.MinDataInLeaf {
		return b.leaf(sumGrad, sumHess)
	}

	best := b.findBestSplit(indices, sumGrad, sumHess)
	if best.gain <= 0 {
		return b.leaf(sumGrad, sumHess)
	}

	// reserve the slot so that children get larger indices
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: best.feature, Threshold: best.threshold})

	leftIdx, rightIdx := b.splitData(indices, best.feature, best.threshold)
	left := b.buildNode(leftIdx, depth+1)
	right := b.buildNode(rightIdx, depth+1)
	b.nodes[self].Left = left
	b.nodes[self].Right = right
	return self
}

type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) findBestSplit(indices []int, totalGrad, totalHess float64) splitInfo {
	best := splitInfo{gain: math.Inf(-1)}
	minData := b.params.MinDataInLeaf
	sorted := make([]int, len(indices))

	for _, feature := range b.features {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.value(sorted[i], feature) < b.value(sorted[j], feature)
		})
		if b.value(sorted[0], feature) == b.value(sorted[len(sorted)-1], feature) {
			continue // No split possible
		}

		leftGrad, leftHess := 0.0, 0.0
		for i := 0; i < len(sorted)-1; i++ {
			idx := sorted[i]
			leftGrad += b.grad[idx]
			leftHess += b.hess[idx]

			leftCount := i + 1
			rightCount := len(sorted) - leftCount
			if leftCount < minData || rightCount < minData {
				continue
			}

			currentVal := b.value(sorted[i], feature)
			nextVal := b.value(sorted[i+1], feature)
			if currentVal == nextVal {
				continue
			}

			rightGrad := totalGrad - leftGrad
			rightHess := totalHess - leftHess
			if leftHess < b.params.MinChildWeight || rightHess < b.params.MinChildWeight {
				continue
			}

			gain := calculateSplitGain(
				leftGrad, leftHess,
				rightGrad, rightHess,
				totalGrad, totalHess,
				b.params.Alpha, b.params.Lambda,
			) - b.params.Gamma

			if gain > best.gain {
				best = splitInfo{
					feature:   feature,
					threshold: currentVal + (nextVal-currentVal)/2,
					gain:      gain,
				}
			}
		}
	}
	return best
}

func (b *treeBuilder) value(row, feature int) float64 {
	return b.data[row*b.cols+feature]
}

func (b *treeBuilder) splitData(indices []int, feature int, threshold float64) ([]int, []int) {
	left := make([]int, 0, len(indices)/2)
	right := make([]int, 0, len(indices)/2)
	for _, idx := range indices {
		if b.value(idx, feature) <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// softThreshold applies L1 shrinkage to a gradient sum.
func softThreshold(g, alpha float64) float64 {
	switch {
	case g > alpha:
		return g - alpha
	case g < -alpha:
		return g + alpha
	default:
		return 0
	}
}

// leafWeight is the optimal leaf value -T(G, α)/(H + λ).
func leafWeight(sumGrad, sumHess, alpha, lambda float64) float64 {
	denom := sumHess + lambda
	if denom <= 0 {
		return 0
	}
	return -softThreshold(sumGrad, alpha) / denom
}

func score(g, h, alpha, lambda float64) float64 {
	denom := h + lambda
	if denom <= 0 {
		return 0
	}
	t := softThreshold(g, alpha)
	return t * t / denom
}

// calculateSplitGain is ½[GL²/(HL+λ) + GR²/(HR+λ) − G²/(H+λ)] with L1
// soft-thresholding applied to each gradient sum.
func calculateSplitGain(
	leftGrad, leftHess,
	rightGrad, rightHess,
	totalGrad, totalHess,
	alpha, lambda float64,
) float64 {
	return 0.5 * (score(leftGrad, leftHess, alpha, lambda) +
		score(rightGrad, rightHess, alpha, lambda) -
		score(totalGrad, totalHess, alpha, lambda))
}
