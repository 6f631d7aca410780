package seq2seq_data

import (
	"github.com/pkg/errors"
	"github.com/wbrown/seq2seq_data/types"
)

var ErrRaggedBatch = errors.New("rows in a batch differ in width")

// TrimBatch
// Drops every column in which all rows hold the pad id. The same columns are
// dropped from each of masks, which must match rows in shape.
func TrimBatch(rows []types.Tokens, padId types.Token,
	masks ...[]types.Mask) ([]types.Tokens, [][]types.Mask, error) {
	width, err := batchWidth(rows)
	if err != nil {
		return nil, nil, err
	}
	for _, mask := range masks {
		if len(mask) != len(rows) {
			return nil, nil, errors.Wrapf(ErrRaggedBatch,
				"%d mask rows for %d id rows", len(mask), len(rows))
		}
		for rowIdx := range mask {
			if len(mask[rowIdx]) != width {
				return nil, nil, errors.Wrapf(ErrRaggedBatch,
					"mask row %d has width %d, want %d", rowIdx,
					len(mask[rowIdx]), width)
			}
		}
	}

	keep := make([]int, 0, width)
	for col := 0; col < width; col++ {
		for _, row := range rows {
			if row[col] != padId {
				keep = append(keep, col)
				break
			}
		}
	}

	trimmed := make([]types.Tokens, len(rows))
	for rowIdx, row := range rows {
		trimmed[rowIdx] = make(types.Tokens, len(keep))
		for keepIdx, col := range keep {
			trimmed[rowIdx][keepIdx] = row[col]
		}
	}
	trimmedMasks := make([][]types.Mask, len(masks))
	for maskIdx, mask := range masks {
		trimmedMasks[maskIdx] = make([]types.Mask, len(mask))
		for rowIdx, row := range mask {
			trimmedMasks[maskIdx][rowIdx] = make(types.Mask, len(keep))
			for keepIdx, col := range keep {
				trimmedMasks[maskIdx][rowIdx][keepIdx] = row[col]
			}
		}
	}
	return trimmed, trimmedMasks, nil
}

func batchWidth(rows []types.Tokens) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(rows[0])
	for rowIdx := range rows {
		if len(rows[rowIdx]) != width {
			return 0, errors.Wrapf(ErrRaggedBatch,
				"row %d has width %d, want %d", rowIdx, len(rows[rowIdx]),
				width)
		}
	}
	return width, nil
}

// TrimSeq2SeqBatch
// Trims a stacked batch: the source ids and their mask by the source's pad
// columns, the decoder ids by their own.
func TrimSeq2SeqBatch(batch *types.Batch, padId types.Token) (*types.Batch,
	error) {
	sourceIds, masks, err := TrimBatch(batch.InputIds, padId,
		batch.AttentionMask)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	targetIds, _, err := TrimBatch(batch.DecoderInputIds, padId)
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}
	return &types.Batch{
		InputIds:        sourceIds,
		AttentionMask:   masks[0],
		DecoderInputIds: targetIds,
	}, nil
}
