package types

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ToBin
// Serializes the ids as little-endian uint16, or uint32 when useUint32 is
// set. Ids above 65535 cannot be written as uint16.
func (tokens *Tokens) ToBin(useUint32 bool) (*[]byte, error) {
	if useUint32 {
		return tokens.ToBinUint32()
	}
	return tokens.ToBinUint16()
}

func (tokens *Tokens) ToBinUint16() (*[]byte, error) {
	out := make([]byte, 0, len(*tokens)*TokenSize)
	for idx, token := range *tokens {
		if token > math.MaxUint16 {
			return nil, fmt.Errorf("token %d at %d does not fit in "+
				"16 bits", token, idx)
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(token))
	}
	return &out, nil
}

func (tokens *Tokens) ToBinUint32() (*[]byte, error) {
	out := make([]byte, 0, len(*tokens)*TokenSize32)
	for _, token := range *tokens {
		out = binary.LittleEndian.AppendUint32(out, uint32(token))
	}
	return &out, nil
}

// FitsUint16 reports whether every token id can be written as 16-bit.
func (tokens Tokens) FitsUint16() bool {
	for _, token := range tokens {
		if token > math.MaxUint16 {
			return false
		}
	}
	return true
}

// CountNonPad
// Returns the number of positions that do not hold the pad token.
func (tokens Tokens) CountNonPad(pad Token) int {
	count := 0
	for _, token := range tokens {
		if token != pad {
			count++
		}
	}
	return count
}

// Sum returns the number of attended positions.
func (mask Mask) Sum() int {
	total := 0
	for _, m := range mask {
		total += int(m)
	}
	return total
}

// TokensFromBin decodes uint16 ids. A trailing odd byte is ignored.
func TokensFromBin(bin *[]byte) *Tokens {
	data := *bin
	tokens := make(Tokens, len(data)/TokenSize)
	for idx := range tokens {
		tokens[idx] = Token(binary.LittleEndian.Uint16(data[idx*TokenSize:]))
	}
	return &tokens
}

// TokensFromBin32 decodes uint32 ids.
func TokensFromBin32(bin *[]byte) *Tokens {
	data := *bin
	tokens := make(Tokens, len(data)/TokenSize32)
	for idx := range tokens {
		tokens[idx] = Token(
			binary.LittleEndian.Uint32(data[idx*TokenSize32:]))
	}
	return &tokens
}

// Size returns the number of rows in the batch.
func (batch *Batch) Size() int {
	return len(batch.InputIds)
}

// SourceWidth returns the column count of the source rows, 0 when empty.
func (batch *Batch) SourceWidth() int {
	if len(batch.InputIds) == 0 {
		return 0
	}
	return len(batch.InputIds[0])
}

// TargetWidth returns the column count of the decoder rows, 0 when empty.
func (batch *Batch) TargetWidth() int {
	if len(batch.DecoderInputIds) == 0 {
		return 0
	}
	return len(batch.DecoderInputIds[0])
}
