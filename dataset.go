package seq2seq_data

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/wbrown/seq2seq_data/types"
)

var ErrIndexOutOfRange = errors.New("index out of range")

// DefaultPadTokenId is the BART pad id.
const DefaultPadTokenId types.Token = 1

// DatasetOptions configures a SummarizationDataset.
type DatasetOptions struct {
	MaxSourceLength int
	MaxTargetLength int
	// NObs keeps only the first NObs pairs when positive.
	NObs       int
	PadTokenId types.Token
}

func NewDatasetOptions() DatasetOptions {
	return DatasetOptions{
		MaxSourceLength: 1024,
		MaxTargetLength: 56,
		PadTokenId:      DefaultPadTokenId,
	}
}

// SummarizationDataset
// Pairs encoded sources with encoded targets by position.
type SummarizationDataset struct {
	source []types.EncodedExample
	target []types.EncodedExample
	opts   DatasetOptions
}

// NewSummarizationDataset
// Wraps already encoded examples. When the lists differ in length both are
// cut to the shorter one, and NObs then limits them further.
func NewSummarizationDataset(source, target []types.EncodedExample,
	opts DatasetOptions) *SummarizationDataset {
	n := len(source)
	if len(target) != n {
		if len(target) < n {
			n = len(target)
		}
		Logger.Warn().Msgf("%d source examples but %d target examples, "+
			"keeping the first %d pairs", len(source), len(target), n)
	}
	if opts.NObs > 0 && opts.NObs < n {
		n = opts.NObs
	}
	return &SummarizationDataset{
		source: source[:n],
		target: target[:n],
		opts:   opts,
	}
}

// RawDataOptions configures FromRawData.
type RawDataOptions struct {
	DatasetOptions
	// TypePath names the split, e.g. `train`, `val` or `test`.
	TypePath string
	// TgtSuffix is appended to the target file name of the train split.
	TgtSuffix string
	Encode    EncodeOptions
	// KeepPadTokenId keeps DatasetOptions.PadTokenId instead of taking the
	// tokenizer's.
	KeepPadTokenId bool
}

func NewRawDataOptions() RawDataOptions {
	return RawDataOptions{
		DatasetOptions: NewDatasetOptions(),
		TypePath:       "train",
		Encode:         NewEncodeOptions(),
	}
}

// SourcePath returns the source file of a split.
func SourcePath(dataDir string, typePath string) string {
	return joinDataPath(dataDir, typePath+".source")
}

// TargetPath
// Returns the target file of a split. Only the train split takes the
// suffix.
func TargetPath(dataDir string, typePath string, tgtSuffix string) string {
	name := typePath + ".target"
	if typePath == "train" {
		name += tgtSuffix
	}
	return joinDataPath(dataDir, name)
}

// joinDataPath joins remote URIs with `/` and local paths the OS way.
func joinDataPath(dataDir string, name string) string {
	if resources.IsRemote(dataDir) {
		return strings.TrimSuffix(dataDir, "/") + "/" + name
	}
	return filepath.Join(dataDir, name)
}

// FromRawData
// Encodes (or loads the caches of) the source and target files of a split
// and wraps them. Sources take the family prefix of the tokenizer, targets
// are never prefixed.
func FromRawData(tok Tokenizer, dataDir string,
	opts RawDataOptions) (*SummarizationDataset, error) {
	if !opts.KeepPadTokenId {
		opts.PadTokenId = tok.PadTokenId()
	}
	sourceOpts := opts.Encode
	sourceOpts.Prefix = DefaultPrefix(tok)
	source, err := EncodeFile(tok, SourcePath(dataDir, opts.TypePath),
		opts.MaxSourceLength, sourceOpts)
	if err != nil {
		return nil, err
	}
	targetOpts := opts.Encode
	targetOpts.Prefix = ""
	target, err := EncodeFile(tok,
		TargetPath(dataDir, opts.TypePath, opts.TgtSuffix),
		opts.MaxTargetLength, targetOpts)
	if err != nil {
		return nil, err
	}
	return NewSummarizationDataset(source, target, opts.DatasetOptions), nil
}

func (ds *SummarizationDataset) Len() int {
	return len(ds.source)
}

func (ds *SummarizationDataset) PadTokenId() types.Token {
	return ds.opts.PadTokenId
}

// Get returns the i-th pair as flat rows.
func (ds *SummarizationDataset) Get(i int) (types.Item, error) {
	if i < 0 || i >= len(ds.source) {
		return types.Item{}, errors.Wrapf(ErrIndexOutOfRange,
			"index %d, length %d", i, len(ds.source))
	}
	return types.Item{
		InputIds:        ds.source[i].InputIds,
		AttentionMask:   ds.source[i].AttentionMask,
		DecoderInputIds: ds.target[i].InputIds,
	}, nil
}

// Collate
// Stacks items into a batch and trims the columns that are padding in every
// row.
func (ds *SummarizationDataset) Collate(items []types.Item) (*types.Batch,
	error) {
	stacked := &types.Batch{
		InputIds:        make([]types.Tokens, len(items)),
		AttentionMask:   make([]types.Mask, len(items)),
		DecoderInputIds: make([]types.Tokens, len(items)),
	}
	for idx, item := range items {
		stacked.InputIds[idx] = item.InputIds
		stacked.AttentionMask[idx] = item.AttentionMask
		stacked.DecoderInputIds[idx] = item.DecoderInputIds
	}
	return TrimSeq2SeqBatch(stacked, ds.opts.PadTokenId)
}

// SrcLens returns the number of attended source positions per example.
func (ds *SummarizationDataset) SrcLens() []int {
	lens := make([]int, len(ds.source))
	for idx := range ds.source {
		lens[idx] = ds.source[idx].AttentionMask.Sum()
	}
	return lens
}

// TgtLens returns the number of non-pad target ids per example.
func (ds *SummarizationDataset) TgtLens() []int {
	lens := make([]int, len(ds.target))
	for idx := range ds.target {
		lens[idx] = ds.target[idx].InputIds.CountNonPad(ds.opts.PadTokenId)
	}
	return lens
}

// MakeSortishSampler returns a sampler over this dataset keyed by source
// length.
func (ds *SummarizationDataset) MakeSortishSampler(batchSize int,
	opts ...SamplerOption) (*SortishSampler, error) {
	return NewSortishSampler(ds.SrcLens(), batchSize, opts...)
}
