package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/wbrown/seq2seq_data"
	"github.com/wbrown/seq2seq_data/config"
	"github.com/wbrown/seq2seq_data/types"
)

var logger = seq2seq_data.Logger

// DecodeExamples
// Writes the attended ids of each example as one line of text. A limit of
// 0 decodes every example. Returns the number of lines written.
func DecodeExamples(tok seq2seq_data.Tokenizer,
	examples []types.EncodedExample, limit int, w io.Writer) (int, error) {
	out := bufio.NewWriter(w)
	written := 0
	for idx, example := range examples {
		if limit > 0 && idx >= limit {
			break
		}
		ids := make(types.Tokens, 0, len(example.InputIds))
		for pos, id := range example.InputIds {
			if example.AttentionMask[pos] != 0 {
				ids = append(ids, id)
			}
		}
		text, err := tok.Decode(ids)
		if err != nil {
			return written, errors.Wrapf(err, "cannot decode example %d", idx)
		}
		// Keep one example per line.
		text = strings.ReplaceAll(text, "\n", " ")
		if _, err = out.WriteString(text + "\n"); err != nil {
			return written, err
		}
		written++
	}
	return written, out.Flush()
}

func main() {
	flags := pflag.CommandLine
	config.RegisterFlags(flags)
	configPath := flags.String("config", "", "YAML config file")
	cachePath := flags.String("cache", "", "cache file to decode")
	outputFile := flags.String("output", "",
		"file to write decoded text to, stdout when empty")
	limit := flags.Int("limit", 0, "decode only the first n examples")
	pflag.Parse()

	if *cachePath == "" {
		pflag.Usage()
		logger.Fatal().Msg("Must provide --cache")
	}
	if _, err := os.Stat(*cachePath); os.IsNotExist(err) {
		logger.Fatal().Msgf("Cache file %s does not exist", *cachePath)
	}

	cfg := must.M1(config.LoadConfig(*configPath, flags))
	logger = must.M1(cfg.NewLogger())
	seq2seq_data.SetLogger(logger)

	header, examples, err := seq2seq_data.LoadCache(*cachePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot load cache")
	}
	logger.Info().Msgf("Cache %s: version %d, tokenizer %s, max length %d, "+
		"%d-byte ids, %d examples", *cachePath, header.Version,
		header.Tokenizer, header.MaxLength, header.TokenWidth, len(examples))

	tok := must.M1(seq2seq_data.NewTokenizer(cfg.Tokenizer,
		cfg.TokenizerOptions()))
	if tok.Name() != header.Tokenizer {
		logger.Warn().Msgf("Decoding with %s, cache was built with %s",
			tok.Name(), header.Tokenizer)
	}

	var w io.Writer = os.Stdout
	if *outputFile != "" {
		outputHandle, createErr := os.Create(*outputFile)
		if createErr != nil {
			logger.Fatal().Err(createErr).Msg("Cannot create output")
		}
		defer outputHandle.Close()
		w = outputHandle
	}
	written, err := DecodeExamples(tok, examples, *limit, w)
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot decode cache")
	}
	logger.Info().Msgf("Decoded %d examples", written)
}
