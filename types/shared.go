package types

type Token uint32
type Tokens []Token

// Mask is an attention mask, 1 for real content and 0 for padding.
type Mask []uint8

const (
	TokenSize   = 2
	TokenSize32 = 4
)

// EncodedExample
// One tokenized line of text, padded or truncated to a fixed length.
type EncodedExample struct {
	InputIds      Tokens
	AttentionMask Mask
}

// Item is a single dataset record: the source ids and mask along with the
// target ids that the decoder is fed.
type Item struct {
	InputIds        Tokens
	AttentionMask   Mask
	DecoderInputIds Tokens
}

// Batch
// Items stacked row-wise. Every row within a field has the same width.
type Batch struct {
	InputIds        []Tokens
	AttentionMask   []Mask
	DecoderInputIds []Tokens
}
