package seq2seq_data

import (
	"github.com/pkg/errors"
	"github.com/wbrown/gpt_bpe"
	"github.com/wbrown/seq2seq_data/types"
)

// BPETokenizer encodes with a gpt_bpe vocabulary such as `gpt2` or `pile`.
// gpt_bpe applies the vocabulary's own prefix space and BOS/EOS rules, so no
// further special tokens are added.
type BPETokenizer struct {
	name    string
	encoder *gpt_bpe.GPTEncoder
}

// NewBPETokenizer
// Loads a gpt_bpe vocabulary. Embedded vocabularies are looked up under
// `<id>-tokenizer` first, then `id` is tried as a huggingface.co model id or
// local path.
func NewBPETokenizer(vocabId string) (*BPETokenizer, error) {
	encoder, err := gpt_bpe.NewEncoder(vocabId + "-tokenizer")
	if err != nil {
		var idErr error
		encoder, idErr = gpt_bpe.NewEncoder(vocabId)
		if idErr != nil {
			return nil, errors.Wrapf(idErr, "cannot load bpe vocabulary %s",
				vocabId)
		}
	}
	return &BPETokenizer{name: vocabId, encoder: encoder}, nil
}

func (tok *BPETokenizer) Name() string {
	return tok.name
}

func (tok *BPETokenizer) Kind() Kind {
	return KindBart
}

func (tok *BPETokenizer) Encode(text string) (types.Tokens, error) {
	encoded := tok.encoder.Encode(&text)
	if encoded == nil {
		return nil, errors.Errorf("bpe encoder returned no tokens")
	}
	ids := make(types.Tokens, len(*encoded))
	for idx, token := range *encoded {
		ids[idx] = types.Token(token)
	}
	return ids, nil
}

func (tok *BPETokenizer) AddSpecialTokens(ids types.Tokens) types.Tokens {
	return ids
}

func (tok *BPETokenizer) NumSpecialTokens() int {
	return 0
}

func (tok *BPETokenizer) PadTokenId() types.Token {
	return types.Token(tok.encoder.PadToken)
}

func (tok *BPETokenizer) Decode(ids types.Tokens) (string, error) {
	encoded := make(gpt_bpe.Tokens, len(ids))
	for idx, id := range ids {
		encoded[idx] = gpt_bpe.Token(id)
	}
	return tok.encoder.Decode(&encoded), nil
}
