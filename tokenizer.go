package seq2seq_data

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/wbrown/seq2seq_data/types"
)

// Kind is the model family a tokenizer belongs to. It decides the cache name
// and the source prefix.
type Kind int

const (
	KindBart Kind = iota
	KindT5
)

const (
	// T5Prefix is prepended to every source line for T5-family tokenizers.
	T5Prefix = "summarize: "
	// PseudoTargetSuffix names target caches built from model outputs.
	PseudoTargetSuffix = "pseudo_target.pkl"
)

var ErrUnknownTokenizer = errors.New("unknown tokenizer")

func (k Kind) String() string {
	switch k {
	case KindBart:
		return "bart"
	case KindT5:
		return "t5"
	default:
		return "unknown"
	}
}

// ParseKind accepts `bart` or `t5`, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "bart":
		return KindBart, nil
	case "t5":
		return KindT5, nil
	}
	return 0, errors.Errorf("invalid tokenizer kind %q, want bart or t5", s)
}

// Tokenizer is the capability the encode step needs from a vocabulary.
type Tokenizer interface {
	// Name identifies the vocabulary, e.g. `gpt2` or a model id.
	Name() string
	Kind() Kind
	// Encode returns the ids for text without special tokens.
	Encode(text string) (types.Tokens, error)
	// AddSpecialTokens wraps already encoded ids in the model's special
	// tokens.
	AddSpecialTokens(ids types.Tokens) types.Tokens
	// NumSpecialTokens is how many ids AddSpecialTokens adds.
	NumSpecialTokens() int
	PadTokenId() types.Token
	Decode(ids types.Tokens) (string, error)
}

// TokName
// Returns the tokenizer component of the cache file name: empty for the
// BART family, `T5` otherwise.
func TokName(tok Tokenizer) string {
	if tok.Kind() == KindBart {
		return ""
	}
	return "T5"
}

// DefaultPrefix returns the source line prefix for the tokenizer's family.
func DefaultPrefix(tok Tokenizer) string {
	if tok.Kind() == KindT5 {
		return T5Prefix
	}
	return ""
}

// EncodePlus
// Encodes one line into ids and an attention mask. Content is truncated so
// that it fits in `maxLength` together with the special tokens, and when
// `padToMax` is set the result is right-padded with the pad id to exactly
// `maxLength`.
func EncodePlus(tok Tokenizer, text string, maxLength int,
	padToMax bool) (types.EncodedExample, error) {
	if maxLength < 1 {
		return types.EncodedExample{}, errors.Errorf(
			"max length must be positive, got %d", maxLength)
	}
	ids, err := tok.Encode(text)
	if err != nil {
		return types.EncodedExample{}, errors.Wrapf(err,
			"%s: cannot encode %q", tok.Name(), text)
	}
	room := maxLength - tok.NumSpecialTokens()
	if room < 0 {
		room = 0
	}
	if len(ids) > room {
		ids = ids[:room]
	}
	ids = tok.AddSpecialTokens(ids)
	if len(ids) > maxLength {
		ids = ids[:maxLength]
	}

	width := len(ids)
	if padToMax {
		width = maxLength
	}
	example := types.EncodedExample{
		InputIds:      make(types.Tokens, width),
		AttentionMask: make(types.Mask, width),
	}
	copy(example.InputIds, ids)
	pad := tok.PadTokenId()
	for idx := range example.InputIds {
		if idx < len(ids) {
			example.AttentionMask[idx] = 1
		} else {
			example.InputIds[idx] = pad
		}
	}
	return example, nil
}

// TokenizerOptions configures NewTokenizer.
type TokenizerOptions struct {
	// CacheDir holds tokenizer files fetched from remote ids.
	CacheDir string
	// Kind overrides the family inferred from the backend when not empty.
	Kind string
	// PadTokenId overrides the vocabulary's pad id when not negative.
	PadTokenId int
}

// NewTokenizerOptions returns the default options.
func NewTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{
		CacheDir:   ".tokenizers",
		PadTokenId: -1,
	}
}

type tokenizerKey struct {
	id   string
	opts TokenizerOptions
}

var (
	tokenizersMu sync.Mutex
	tokenizers   = make(map[tokenizerKey]Tokenizer)
)

// NewTokenizer
// Resolves a tokenizer id. Ids take the form `<backend>:<ref>`:
//
//	bpe:gpt2               gpt_bpe vocabulary (BART family)
//	spm:path/spiece.model  sentencepiece model (T5 family)
//	hf:facebook/bart-base  tokenizer.json from a directory or the hub
//	tiktoken:cl100k_base   tiktoken encoding
//
// Bare ids ending in `.model` or `.json` select spm or hf, anything else is
// treated as a gpt_bpe vocabulary. Instances are cached per id and options.
func NewTokenizer(id string, opts TokenizerOptions) (Tokenizer, error) {
	key := tokenizerKey{id, opts}
	tokenizersMu.Lock()
	defer tokenizersMu.Unlock()
	if tok, ok := tokenizers[key]; ok {
		return tok, nil
	}

	backend, ref := splitTokenizerId(id)
	var tok Tokenizer
	var err error
	switch backend {
	case "bpe":
		tok, err = NewBPETokenizer(ref)
	case "spm":
		tok, err = NewSentencePieceTokenizer(ref, opts.CacheDir)
	case "hf":
		tok, err = NewHFTokenizer(ref, opts.CacheDir)
	case "tiktoken":
		tok, err = NewTiktokenTokenizer(ref)
	default:
		return nil, errors.Wrapf(ErrUnknownTokenizer, "backend %q in %q",
			backend, id)
	}
	if err != nil {
		return nil, err
	}

	if opts.Kind != "" {
		kind, kindErr := ParseKind(opts.Kind)
		if kindErr != nil {
			return nil, kindErr
		}
		tok = &overrideTokenizer{Tokenizer: tok, kind: kind,
			pad: tok.PadTokenId()}
	}
	if opts.PadTokenId >= 0 {
		tok = &overrideTokenizer{Tokenizer: tok, kind: tok.Kind(),
			pad: types.Token(opts.PadTokenId)}
	}
	tokenizers[key] = tok
	Logger.Info().Msgf("Tokenizer %s resolved: kind %s, pad id %d",
		tok.Name(), tok.Kind(), tok.PadTokenId())
	return tok, nil
}

func splitTokenizerId(id string) (backend string, ref string) {
	if before, after, found := strings.Cut(id, ":"); found &&
		!strings.Contains(before, "/") {
		switch before {
		case "bpe", "spm", "hf", "tiktoken":
			return before, after
		}
	}
	switch {
	case strings.HasSuffix(id, ".model"):
		return "spm", id
	case strings.HasSuffix(id, ".json"):
		return "hf", id
	default:
		return "bpe", id
	}
}

// overrideTokenizer replaces the family or pad id of another tokenizer.
type overrideTokenizer struct {
	Tokenizer
	kind Kind
	pad  types.Token
}

func (o *overrideTokenizer) Kind() Kind {
	return o.kind
}

func (o *overrideTokenizer) PadTokenId() types.Token {
	return o.pad
}
