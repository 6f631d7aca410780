package seq2seq_data

import (
	"os"

	"github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/wbrown/seq2seq_data/types"
)

const (
	spmModelFile = "spiece.model"
	spmPadPiece  = "<pad>"
	spmEosPiece  = "</s>"
)

// SentencePieceTokenizer encodes with a sentencepiece model, the T5 way:
// every sequence ends with `</s>`.
type SentencePieceTokenizer struct {
	name   string
	proc   *sentencepiece.Processor
	pad    types.Token
	eos    types.Token
	hasEos bool
}

// NewSentencePieceTokenizer
// Loads a sentencepiece model from a `.model` file, or from the
// `spiece.model` of a local directory, URL, S3 prefix or huggingface.co id.
func NewSentencePieceTokenizer(ref string,
	cacheDir string) (*SentencePieceTokenizer, error) {
	modelPath := ref
	if stat, err := os.Stat(ref); err != nil || stat.IsDir() {
		var resolveErr error
		modelPath, resolveErr = resources.ResolveTokenizerFile(ref,
			spmModelFile, cacheDir)
		if resolveErr != nil {
			return nil, errors.Wrapf(resolveErr,
				"cannot resolve sentencepiece model for %s", ref)
		}
	}
	proc, err := sentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece")
	}
	model, err := resources.LoadSentencePieceModel(modelPath)
	if err != nil {
		return nil, err
	}
	specials := resources.SpecialPieces(model)
	tok := &SentencePieceTokenizer{name: ref, proc: proc}
	if pad, ok := specials[spmPadPiece]; ok {
		tok.pad = types.Token(pad)
	} else {
		Logger.Warn().Msgf("%s has no %s piece, padding with id 0",
			ref, spmPadPiece)
	}
	if eos, ok := specials[spmEosPiece]; ok {
		tok.eos = types.Token(eos)
		tok.hasEos = true
	}
	return tok, nil
}

func (tok *SentencePieceTokenizer) Name() string {
	return tok.name
}

func (tok *SentencePieceTokenizer) Kind() Kind {
	return KindT5
}

func (tok *SentencePieceTokenizer) Encode(text string) (types.Tokens, error) {
	pieces := tok.proc.Encode(text)
	ids := make(types.Tokens, len(pieces))
	for idx, piece := range pieces {
		ids[idx] = types.Token(piece.ID)
	}
	return ids, nil
}

func (tok *SentencePieceTokenizer) AddSpecialTokens(
	ids types.Tokens) types.Tokens {
	if !tok.hasEos {
		return ids
	}
	return append(ids[:len(ids):len(ids)], tok.eos)
}

func (tok *SentencePieceTokenizer) NumSpecialTokens() int {
	if tok.hasEos {
		return 1
	}
	return 0
}

func (tok *SentencePieceTokenizer) PadTokenId() types.Token {
	return tok.pad
}

// Decode drops pad and eos ids before decoding.
func (tok *SentencePieceTokenizer) Decode(ids types.Tokens) (string, error) {
	pieceIds := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == tok.pad || (tok.hasEos && id == tok.eos) {
			continue
		}
		pieceIds = append(pieceIds, int(id))
	}
	return tok.proc.Decode(pieceIds), nil
}
