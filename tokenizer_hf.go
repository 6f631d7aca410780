package seq2seq_data

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/wbrown/seq2seq_data/types"
)

const hfTokenizerFile = "tokenizer.json"

// HFTokenizer encodes with a huggingface `tokenizer.json`. The special
// tokens its post-processor adds are probed once at load time so that
// truncation can keep them.
type HFTokenizer struct {
	name   string
	inner  *tokenizer.Tokenizer
	kind   Kind
	pad    types.Token
	prefix types.Tokens
	suffix types.Tokens
}

// NewHFTokenizer
// Loads `tokenizer.json` from a file, or from a local directory, URL, S3
// prefix or huggingface.co model id. Vocabularies that carry `</s>` but no
// `<s>` are treated as T5-family, everything else as BART-family.
func NewHFTokenizer(ref string, cacheDir string) (*HFTokenizer, error) {
	path := ref
	if stat, err := os.Stat(ref); err != nil || stat.IsDir() {
		var resolveErr error
		path, resolveErr = resources.ResolveTokenizerFile(ref,
			hfTokenizerFile, cacheDir)
		if resolveErr != nil {
			return nil, errors.Wrapf(resolveErr,
				"cannot resolve %s for %s", hfTokenizerFile, ref)
		}
	}
	inner, err := pretrained.FromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tokenizer %s", path)
	}

	tok := &HFTokenizer{
		name:  strings.TrimSuffix(ref, "/"+hfTokenizerFile),
		inner: inner,
		kind:  KindBart,
	}
	_, hasBos := inner.TokenToId("<s>")
	_, hasEos := inner.TokenToId("</s>")
	if hasEos && !hasBos {
		tok.kind = KindT5
	}
	if pad, ok := inner.TokenToId("<pad>"); ok {
		tok.pad = types.Token(pad)
	} else if pad, ok = inner.TokenToId("[PAD]"); ok {
		tok.pad = types.Token(pad)
	} else {
		Logger.Warn().Msgf("%s has no pad token, padding with id 0", ref)
	}
	if probeErr := tok.probeSpecials(); probeErr != nil {
		return nil, probeErr
	}
	return tok, nil
}

// probeSpecials splits the post-processor's special tokens into those
// placed before and after the content.
func (tok *HFTokenizer) probeSpecials() error {
	encoding, err := tok.inner.EncodeSingle("a", true)
	if err != nil {
		return errors.Wrapf(err, "%s: cannot probe special tokens", tok.name)
	}
	seenContent := false
	for idx, id := range encoding.Ids {
		special := idx < len(encoding.SpecialTokenMask) &&
			encoding.SpecialTokenMask[idx] == 1
		switch {
		case !special:
			seenContent = true
		case seenContent:
			tok.suffix = append(tok.suffix, types.Token(id))
		default:
			tok.prefix = append(tok.prefix, types.Token(id))
		}
	}
	return nil
}

func (tok *HFTokenizer) Name() string {
	return tok.name
}

func (tok *HFTokenizer) Kind() Kind {
	return tok.kind
}

func (tok *HFTokenizer) Encode(text string) (types.Tokens, error) {
	encoding, err := tok.inner.EncodeSingle(text, false)
	if err != nil {
		return nil, err
	}
	ids := make(types.Tokens, len(encoding.Ids))
	for idx, id := range encoding.Ids {
		ids[idx] = types.Token(id)
	}
	return ids, nil
}

func (tok *HFTokenizer) AddSpecialTokens(ids types.Tokens) types.Tokens {
	wrapped := make(types.Tokens, 0,
		len(tok.prefix)+len(ids)+len(tok.suffix))
	wrapped = append(wrapped, tok.prefix...)
	wrapped = append(wrapped, ids...)
	return append(wrapped, tok.suffix...)
}

func (tok *HFTokenizer) NumSpecialTokens() int {
	return len(tok.prefix) + len(tok.suffix)
}

func (tok *HFTokenizer) PadTokenId() types.Token {
	return tok.pad
}

// Decode skips special tokens.
func (tok *HFTokenizer) Decode(ids types.Tokens) (string, error) {
	intIds := make([]int, len(ids))
	for idx, id := range ids {
		intIds[idx] = int(id)
	}
	return tok.inner.Decode(intIds, true), nil
}
