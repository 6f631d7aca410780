package resources

import (
	"os"

	"github.com/pkg/errors"
	"github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// LoadSentencePieceModel reads and decodes a sentencepiece `.model` file.
func LoadSentencePieceModel(modelPath string) (*sentencepiece.ModelProto,
	error) {
	bytes, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read sentencepiece model %s",
			modelPath)
	}
	var model sentencepiece.ModelProto
	if err = proto.Unmarshal(bytes, &model); err != nil {
		return nil, errors.Wrapf(err, "cannot decode sentencepiece model %s",
			modelPath)
	}
	return &model, nil
}

// SpecialPieces
// Returns the ids of the control, unknown and user-defined pieces keyed by
// their text, e.g. `<pad>`, `</s>` and `<unk>` for T5 vocabularies.
func SpecialPieces(model *sentencepiece.ModelProto) map[string]int {
	specials := make(map[string]int)
	for pieceIdx, piece := range model.GetPieces() {
		switch piece.GetType() {
		case sentencepiece.ModelProto_SentencePiece_CONTROL,
			sentencepiece.ModelProto_SentencePiece_UNKNOWN,
			sentencepiece.ModelProto_SentencePiece_USER_DEFINED:
			if _, seen := specials[piece.GetPiece()]; !seen {
				specials[piece.GetPiece()] = pieceIdx
			}
		}
	}
	return specials
}
