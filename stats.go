package seq2seq_data

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BatchIndices splits an order into consecutive batches; the last may be
// short.
func BatchIndices(order []int, batchSize int) [][]int {
	if batchSize < 1 {
		return nil
	}
	batches := make([][]int, 0, (len(order)+batchSize-1)/batchSize)
	for start := 0; start < len(order); start += batchSize {
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		batches = append(batches, order[start:end])
	}
	return batches
}

// PaddingStats
// Describes how much padding a batching order costs once every batch is
// trimmed to its longest row.
type PaddingStats struct {
	Batches      int
	RealCells    float64
	PaddedCells  float64
	PaddingRatio float64
	// MeanWidth and StdWidth describe the per-batch trimmed widths.
	MeanWidth float64
	StdWidth  float64
}

// ComputePaddingStats
// Batches order by batchSize and measures, per batch, the width of its
// longest key against the keys of its rows.
func ComputePaddingStats(keys []int, order []int,
	batchSize int) (PaddingStats, error) {
	if batchSize < 1 {
		return PaddingStats{}, errors.Errorf(
			"batch size must be positive, got %d", batchSize)
	}
	batches := BatchIndices(order, batchSize)
	widths := make([]float64, len(batches))
	realCells := make([]float64, len(batches))
	total := make([]float64, len(batches))
	for batchIdx, batch := range batches {
		width := 0
		for _, idx := range batch {
			if idx < 0 || idx >= len(keys) {
				return PaddingStats{}, errors.Wrapf(ErrIndexOutOfRange,
					"index %d, length %d", idx, len(keys))
			}
			if keys[idx] > width {
				width = keys[idx]
			}
			realCells[batchIdx] += float64(keys[idx])
		}
		widths[batchIdx] = float64(width)
		total[batchIdx] = float64(width * len(batch))
	}

	stats := PaddingStats{
		Batches:   len(batches),
		RealCells: floats.Sum(realCells),
	}
	stats.PaddedCells = floats.Sum(total) - stats.RealCells
	if totalCells := floats.Sum(total); totalCells > 0 {
		stats.PaddingRatio = stats.PaddedCells / totalCells
	}
	switch {
	case len(widths) == 1:
		stats.MeanWidth = widths[0]
	case len(widths) > 1:
		stats.MeanWidth, stats.StdWidth = stat.MeanStdDev(widths, nil)
	}
	return stats, nil
}
