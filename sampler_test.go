package seq2seq_data

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKeys(n int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	keys := make([]int, n)
	for idx := range keys {
		keys[idx] = rng.Intn(500) + 1
	}
	return keys
}

func TestSortishSamplerPermutation(t *testing.T) {
	for _, n := range []int{1, 7, 64, 1000} {
		for _, batchSize := range []int{1, 3, 8, 32} {
			keys := randomKeys(n, int64(n*batchSize))
			sampler, err := NewSortishSampler(keys, batchSize, WithSeed(42))
			require.NoError(t, err)
			order := sampler.Order()
			require.Len(t, order, n)
			sorted := append([]int{}, order...)
			sort.Ints(sorted)
			for idx := range sorted {
				require.Equal(t, idx, sorted[idx], "n=%d bs=%d", n, batchSize)
			}
		}
	}
}

func TestSortishSamplerLargestBatchFirst(t *testing.T) {
	keys := randomKeys(2000, 7)
	maxKey := 0
	for _, key := range keys {
		if key > maxKey {
			maxKey = key
		}
	}
	sampler, err := NewSortishSampler(keys, 16, WithSeed(1))
	require.NoError(t, err)
	for pass := 0; pass < 5; pass++ {
		order := sampler.Order()
		assert.Equal(t, maxKey, keys[order[0]])
		for _, idx := range order[:16] {
			assert.LessOrEqual(t, keys[idx], keys[order[0]])
		}
	}
}

func TestSortishSamplerBatchesAreSorted(t *testing.T) {
	keys := randomKeys(400, 11)
	sampler, err := NewSortishSampler(keys, 4, WithSeed(5))
	require.NoError(t, err)
	for _, batch := range BatchIndices(sampler.Order(), 4) {
		for idx := 1; idx < len(batch); idx++ {
			assert.GreaterOrEqual(t, keys[batch[idx-1]], keys[batch[idx]])
		}
	}
}

func TestSortishSamplerSeeded(t *testing.T) {
	keys := randomKeys(300, 3)
	first, err := NewSortishSampler(keys, 8, WithSeed(9))
	require.NoError(t, err)
	second, err := NewSortishSampler(keys, 8,
		WithRand(rand.New(rand.NewSource(9))))
	require.NoError(t, err)
	firstOrder := first.Order()
	assert.Equal(t, firstOrder, second.Order())
	// Each pass draws a new order.
	assert.NotEqual(t, firstOrder, first.Order())
}

func TestSortishSamplerIter(t *testing.T) {
	keys := []int{3, 1, 4, 1, 5, 9, 2, 6}
	sampler, err := NewSortishSampler(keys, 3, WithSeed(2))
	require.NoError(t, err)
	assert.Equal(t, len(keys), sampler.Len())
	assert.Equal(t, 3, sampler.BatchSize())

	var iterable Sampler = sampler
	next := iterable.Iter()
	seen := make(map[int]bool)
	for {
		idx, ok := next()
		if !ok {
			break
		}
		seen[idx] = true
	}
	assert.Len(t, seen, len(keys))
	_, ok := next()
	assert.False(t, ok)
}

func TestSortishSamplerEdgeCases(t *testing.T) {
	_, err := NewSortishSampler([]int{1, 2}, 0)
	assert.Error(t, err)

	empty, err := NewSortishSampler(nil, 4)
	require.NoError(t, err)
	assert.Empty(t, empty.Order())
	_, ok := empty.Iter()()
	assert.False(t, ok)

	// A single batch has nothing left to shuffle.
	single, err := NewSortishSampler([]int{2, 8, 5}, 10, WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, single.Order())
}

func TestComputePaddingStats(t *testing.T) {
	keys := []int{2, 8, 2, 8}
	stats, err := ComputePaddingStats(keys, []int{0, 1, 2, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, 20.0, stats.RealCells)
	assert.Equal(t, 12.0, stats.PaddedCells)
	assert.InDelta(t, 0.375, stats.PaddingRatio, 1e-9)
	assert.InDelta(t, 8.0, stats.MeanWidth, 1e-9)
	assert.InDelta(t, 0.0, stats.StdWidth, 1e-9)

	sorted, err := ComputePaddingStats(keys, []int{1, 3, 0, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sorted.PaddedCells)
	assert.Equal(t, 0.0, sorted.PaddingRatio)

	_, err = ComputePaddingStats(keys, []int{7}, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = ComputePaddingStats(keys, nil, 0)
	assert.Error(t, err)
}
