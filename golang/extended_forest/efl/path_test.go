package efl

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFactorIsFiniteAndIncreasing(t *testing.T) {
	previous := CFactor(2)
	assert.InDelta(t, 2*EulerGamma-1, previous, 1e-12)
	for n := 3; n <= 10000; n++ {
		current := CFactor(n)
		require.False(t, math.IsInf(current, 0) || math.IsNaN(current), "n = %d", n)
		require.Greater(t, current, previous, "n = %d", n)
		previous = current
	}
}

func TestCFactorPanicsForSinglePoint(t *testing.T) {
	assert.Panics(t, func() { CFactor(1) })
	assert.Panics(t, func() { CFactor(0) })
	assert.Equal(t, 0.0, correction(1))
	assert.Equal(t, 0.0, correction(0))
	assert.Equal(t, CFactor(5), correction(5))
}

func TestBatchPathLengthsMatchRecursive(t *testing.T) {
	for _, extensionLevel := range []int{0, 1, 2} {
		sub := GenerateCluster(256, 3, 31)
		tree := NewTree(sub, 8, extensionLevel, rand.New(rand.NewPCG(31, uint64(extensionLevel))))
		queries := GenerateClusterWithOutliers(300, 20, []float64{6, -6, 6}, 1, 32)

		h, _ := queries.Dims()
		batch := make([]float64, h)
		tree.BatchPathLengths(queries, batch, 1)

		for p := 0; p < h; p++ {
			assert.Equal(t, tree.PathLength(queries.RawRowView(p)), batch[p], "row %d", p)
		}
	}
}

func TestBatchPathLengthsHonoursStride(t *testing.T) {
	sub := GenerateCluster(64, 2, 12)
	tree := NewTree(sub, 6, 1, rand.New(rand.NewPCG(12, 0)))
	queries := GenerateCluster(10, 2, 13)

	dst := make([]float64, 10*3)
	for ind := range dst {
		dst[ind] = -1
	}
	tree.BatchPathLengths(queries, dst[1:], 3)

	for p := 0; p < 10; p++ {
		assert.Equal(t, -1.0, dst[p*3])
		assert.Equal(t, tree.PathLength(queries.RawRowView(p)), dst[p*3+1])
		assert.Equal(t, -1.0, dst[p*3+2])
	}
}

func TestBatchPathLengthsWithTerminalRoot(t *testing.T) {
	sub := GenerateCluster(20, 2, 14)
	tree := NewTree(sub, 0, 1, rand.New(rand.NewPCG(14, 0)))
	require.Len(t, tree.TreeNodes, 1)

	queries := GenerateCluster(5, 2, 15)
	dst := make([]float64, 5)
	tree.BatchPathLengths(queries, dst, 1)
	for p := range dst {
		assert.Equal(t, CFactor(20), dst[p])
		assert.Equal(t, CFactor(20), tree.PathLength(queries.RawRowView(p)))
	}
}
