package seq2seq_data

import (
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
	"github.com/wbrown/seq2seq_data/types"
)

const tiktokenEndOfText = "<|endoftext|>"

// TiktokenTokenizer encodes with a tiktoken encoding such as `cl100k_base`.
// `<|endoftext|>` doubles as the pad id. Special token text in the input is
// encoded as ordinary text.
type TiktokenTokenizer struct {
	name     string
	encoding *tiktoken.Tiktoken
	pad      types.Token
}

func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load tiktoken encoding %s",
			encodingName)
	}
	endOfText := encoding.Encode(tiktokenEndOfText, []string{"all"}, nil)
	if len(endOfText) != 1 {
		return nil, errors.Errorf("%s: %s is not a single token",
			encodingName, tiktokenEndOfText)
	}
	return &TiktokenTokenizer{
		name:     encodingName,
		encoding: encoding,
		pad:      types.Token(endOfText[0]),
	}, nil
}

func (tok *TiktokenTokenizer) Name() string {
	return tok.name
}

func (tok *TiktokenTokenizer) Kind() Kind {
	return KindBart
}

func (tok *TiktokenTokenizer) Encode(text string) (types.Tokens, error) {
	encoded := tok.encoding.Encode(text, nil, []string{})
	ids := make(types.Tokens, len(encoded))
	for idx, id := range encoded {
		ids[idx] = types.Token(id)
	}
	return ids, nil
}

func (tok *TiktokenTokenizer) AddSpecialTokens(ids types.Tokens) types.Tokens {
	return ids
}

func (tok *TiktokenTokenizer) NumSpecialTokens() int {
	return 0
}

func (tok *TiktokenTokenizer) PadTokenId() types.Token {
	return tok.pad
}

func (tok *TiktokenTokenizer) Decode(ids types.Tokens) (string, error) {
	intIds := make([]int, 0, len(ids))
	for _, id := range ids {
		if id == tok.pad {
			continue
		}
		intIds = append(intIds, int(id))
	}
	return tok.encoding.Decode(intIds), nil
}
