package outlier

import (
	"math"
	"math/rand"
)

// isolation forest over plain feature rows. Anomalous rows isolate in
// fewer random splits, giving shorter average path lengths and scores
// near 1; typical rows score near or below 0.5.

type node struct {
	splitFeature int
	splitValue   float64
	left, right  *node
	size         int
	leaf         bool
}

type forest struct {
	trees     []*node
	subSample int
	maxDepth  int
	rng       *rand.Rand
}

// newForest builds an untrained forest. The rng is seeded explicitly so
// scoring is reproducible under a fixed configuration.
func newForest(numTrees, subSample int, seed int64) *forest {
	if subSample < 2 {
		subSample = 2
	}
	return &forest{
		trees:     make([]*node, 0, numTrees),
		subSample: subSample,
		maxDepth:  int(math.Ceil(math.Log2(float64(subSample)))),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (f *forest) fit(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	if f.subSample > len(rows) {
		f.subSample = len(rows)
	}
	for i := 0; i < cap(f.trees); i++ {
		f.trees = append(f.trees, f.build(f.sample(rows), 0))
	}
}

// score returns the anomaly score 2^(-E[h(x)]/c(n)) for one row.
func (f *forest) score(row []float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}

	total := 0.0
	for _, t := range f.trees {
		total += pathLength(t, row, 0)
	}
	avg := total / float64(len(f.trees))

	return math.Pow(2, -avg/avgPathLength(f.subSample))
}

func (f *forest) sample(rows [][]float64) [][]float64 {
	shuffled := make([][]float64, len(rows))
	copy(shuffled, rows)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := f.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:f.subSample]
}

func (f *forest) build(rows [][]float64, depth int) *node {
	if len(rows) <= 1 || depth >= f.maxDepth || allIdentical(rows) {
		return &node{size: len(rows), leaf: true}
	}

	feature := f.rng.Intn(len(rows[0]))
	lo, hi := featureRange(rows, feature)
	split := lo + f.rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{size: len(rows), leaf: true}
	}

	return &node{
		splitFeature: feature,
		splitValue:   split,
		left:         f.build(left, depth+1),
		right:        f.build(right, depth+1),
		size:         len(rows),
	}
}

func pathLength(t *node, row []float64, depth int) float64 {
	if t.leaf {
		return float64(depth) + avgPathLength(t.size)
	}
	if row[t.splitFeature] < t.splitValue {
		return pathLength(t.left, row, depth+1)
	}
	return pathLength(t.right, row, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful
// BST search: c(n) = 2H(n-1) - 2(n-1)/n.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	return 2*harmonic(n-1) - 2*float64(n-1)/float64(n)
}

const eulerMascheroni = 0.5772156649

func harmonic(n int) float64 {
	return math.Log(float64(n)) + eulerMascheroni
}

func allIdentical(rows [][]float64) bool {
	for i := 1; i < len(rows); i++ {
		for j := range rows[0] {
			if math.Abs(rows[i][j]-rows[0][j]) > 1e-10 {
				return false
			}
		}
	}
	return true
}

func featureRange(rows [][]float64, feature int) (float64, float64) {
	lo, hi := rows[0][feature], rows[0][feature]
	for _, row := range rows {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	return lo, hi
}
