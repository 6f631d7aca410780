package seq2seq_data

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/wbrown/seq2seq_data/types"
)

const (
	defaultMemoSize = 8192
	maxLineBytes    = 64 * 1024 * 1024
)

// EncodeOptions controls how EncodeFile turns lines into examples.
type EncodeOptions struct {
	// PadToMaxLength right-pads every example to exactly maxLength.
	PadToMaxLength bool
	// OverwriteCache re-encodes even when a cache file exists.
	OverwriteCache bool
	// Prefix is prepended to every stripped line.
	Prefix string
	// Sanitize normalizes whitespace before encoding.
	Sanitize bool
	// SentenceNewlines puts each sentence of a line on its own line.
	SentenceNewlines bool
	// MemoSize bounds the memo of already encoded lines; 0 disables it.
	MemoSize int
	// MirrorDir receives local copies of remote data files.
	MirrorDir string
	// Quiet suppresses the progress bar.
	Quiet bool
}

func NewEncodeOptions() EncodeOptions {
	return EncodeOptions{
		PadToMaxLength: true,
		MemoSize:       defaultMemoSize,
		MirrorDir:      ".data",
	}
}

// EncodeFile
// Returns the encoded examples for every line of dataPath, one per line in
// file order. Results are cached at CachePath next to the data file; an
// existing cache is returned as is unless opts.OverwriteCache is set, and the
// tokenizer is not consulted in that case.
func EncodeFile(tok Tokenizer, dataPath string, maxLength int,
	opts EncodeOptions) ([]types.EncodedExample, error) {
	localPath, err := localDataPath(dataPath, opts.MirrorDir)
	if err != nil {
		return nil, err
	}
	cachePath := CachePath(localPath, TokName(tok), maxLength)
	if !opts.OverwriteCache {
		if _, statErr := os.Stat(cachePath); statErr == nil {
			header, examples, loadErr := LoadCache(cachePath)
			if loadErr != nil {
				return nil, loadErr
			}
			if header.Tokenizer != tok.Name() ||
				header.MaxLength != maxLength {
				Logger.Warn().Msgf("Cache %s was built with %s at length "+
					"%d, using it for %s at length %d", cachePath,
					header.Tokenizer, header.MaxLength, tok.Name(),
					maxLength)
			}
			Logger.Info().Msgf("Loaded %d examples from %s",
				len(examples), cachePath)
			return examples, nil
		}
	}

	lines, err := readLines(localPath)
	if err != nil {
		return nil, err
	}
	examples, err := encodeLines(tok, filepath.Base(localPath), lines,
		maxLength, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot encode %s", localPath)
	}
	header := CacheHeader{Tokenizer: tok.Name(), MaxLength: maxLength}
	if err = SaveCache(cachePath, header, examples); err != nil {
		return nil, err
	}
	Logger.Info().Msgf("Saved %d examples to %s", len(examples), cachePath)
	return examples, nil
}

// LocalPath
// Returns where EncodeFile reads dataPath from, and so where its cache
// lives: remote files are mirrored into mirrorDir under their base name.
func LocalPath(dataPath string, mirrorDir string) string {
	if !resources.IsRemote(dataPath) {
		return dataPath
	}
	return filepath.Join(mirrorDir, path.Base(dataPath))
}

// localDataPath mirrors remote data files and returns local paths as is.
func localDataPath(dataPath string, mirrorDir string) (string, error) {
	if !resources.IsRemote(dataPath) {
		return dataPath, nil
	}
	cut := strings.LastIndex(dataPath, "/")
	if cut < 0 {
		return "", errors.Errorf("cannot split remote path %s", dataPath)
	}
	return resources.Mirror(dataPath[:cut], dataPath[cut+1:], mirrorDir)
}

func readLines(dataPath string) ([]string, error) {
	file, err := os.Open(dataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", dataPath)
	}
	defer file.Close()
	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", dataPath)
	}
	return lines, nil
}

func encodeLines(tok Tokenizer, name string, lines []string, maxLength int,
	opts EncodeOptions) ([]types.EncodedExample, error) {
	var memo *lru.ARCCache
	if opts.MemoSize > 0 {
		var err error
		if memo, err = lru.NewARC(opts.MemoSize); err != nil {
			return nil, err
		}
	}
	var bar *progressbar.ProgressBar
	if opts.Quiet {
		bar = progressbar.DefaultSilent(int64(len(lines)))
	} else {
		bar = progressbar.Default(int64(len(lines)), "Tokenizing "+name)
	}
	defer bar.Close()

	examples := make([]types.EncodedExample, len(lines))
	for lineIdx, line := range lines {
		text, err := prepareLine(line, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineIdx+1)
		}
		if memo != nil {
			if cached, ok := memo.Get(text); ok {
				examples[lineIdx] = copyExample(cached.(types.EncodedExample))
				_ = bar.Add(1)
				continue
			}
		}
		example, err := EncodePlus(tok, text, maxLength, opts.PadToMaxLength)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineIdx+1)
		}
		if memo != nil {
			memo.Add(text, example)
		}
		examples[lineIdx] = example
		_ = bar.Add(1)
	}
	return examples, nil
}

func prepareLine(line string, opts EncodeOptions) (string, error) {
	text := strings.TrimSpace(line)
	if opts.Sanitize {
		text = SanitizeLine(text)
	}
	if opts.SentenceNewlines {
		var err error
		if text, err = SplitSentences(text); err != nil {
			return "", err
		}
	}
	return opts.Prefix + text, nil
}

func copyExample(example types.EncodedExample) types.EncodedExample {
	return types.EncodedExample{
		InputIds:      append(types.Tokens{}, example.InputIds...),
		AttentionMask: append(types.Mask{}, example.AttentionMask...),
	}
}
