package seq2seq_data

import (
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// sortishChunkBatches is how many batches' worth of indices are sorted
// together.
const sortishChunkBatches = 50

// IndexIterator
// Yields dataset indices one at a time. Once it returns false it keeps
// returning false.
type IndexIterator func() (int, bool)

// Sampler produces an order over dataset indices.
type Sampler interface {
	Len() int
	Iter() IndexIterator
}

// SortishSampler
// Orders indices so that each batch holds examples of similar key, while
// keeping the order random across passes. The batch with the largest key
// always comes first.
type SortishSampler struct {
	keys      []int
	batchSize int
	rng       *rand.Rand
}

type SamplerOption func(*SortishSampler)

// WithRand draws all randomness from rng.
func WithRand(rng *rand.Rand) SamplerOption {
	return func(sampler *SortishSampler) {
		sampler.rng = rng
	}
}

// WithSeed seeds a private source for reproducible orders.
func WithSeed(seed int64) SamplerOption {
	return func(sampler *SortishSampler) {
		sampler.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSortishSampler
// Builds a sampler over len(keys) indices, where keys[i] is the length of
// example i.
func NewSortishSampler(keys []int, batchSize int,
	opts ...SamplerOption) (*SortishSampler, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batch size must be positive, got %d",
			batchSize)
	}
	sampler := &SortishSampler{
		keys:      keys,
		batchSize: batchSize,
	}
	for _, opt := range opts {
		opt(sampler)
	}
	if sampler.rng == nil {
		sampler.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return sampler, nil
}

func (sampler *SortishSampler) Len() int {
	return len(sampler.keys)
}

func (sampler *SortishSampler) BatchSize() int {
	return sampler.batchSize
}

// Order
// Draws a fresh order:
//  1. a random permutation of all indices,
//  2. cut into chunks of 50 batches, each sorted by key descending,
//  3. regrouped into batches, with the batch whose first key is the largest
//     moved to the front,
//  4. the remaining batches shuffled as units.
func (sampler *SortishSampler) Order() []int {
	n := len(sampler.keys)
	if n == 0 {
		return []int{}
	}
	order := sampler.rng.Perm(n)

	chunkSize := sortishChunkBatches * sampler.batchSize
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunk := order[start:end]
		sort.SliceStable(chunk, func(i, j int) bool {
			return sampler.keys[chunk[i]] > sampler.keys[chunk[j]]
		})
	}

	batches := make([][]int, 0, (n+sampler.batchSize-1)/sampler.batchSize)
	for start := 0; start < n; start += sampler.batchSize {
		end := start + sampler.batchSize
		if end > n {
			end = n
		}
		batches = append(batches, order[start:end])
	}

	maxIdx := 0
	for batchIdx, batch := range batches {
		if sampler.keys[batch[0]] > sampler.keys[batches[maxIdx][0]] {
			maxIdx = batchIdx
		}
	}
	batches[0], batches[maxIdx] = batches[maxIdx], batches[0]

	rest := batches[1:]
	sampler.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	flat := make([]int, 0, n)
	for _, batch := range batches {
		flat = append(flat, batch...)
	}
	return flat
}

// Iter draws a fresh order and yields it one index at a time.
func (sampler *SortishSampler) Iter() IndexIterator {
	order := sampler.Order()
	pos := 0
	return func() (int, bool) {
		if pos >= len(order) {
			return 0, false
		}
		idx := order[pos]
		pos++
		return idx, true
	}
}
