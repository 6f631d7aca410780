package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/wbrown/seq2seq_data"
	"github.com/wbrown/seq2seq_data/config"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/yargevad/filepathx"
)

var logger = seq2seq_data.Logger

// FindSplits
// Recursively scans dataDir for `.source` files that have a matching
// `.target` file and returns their split names relative to dataDir, e.g.
// `train` or `cnn/val`.
func FindSplits(dataDir string) ([]string, error) {
	if resources.IsRemote(dataDir) {
		return nil, errors.Errorf("cannot scan remote data dir %s", dataDir)
	}
	sourcePaths, err := filepathx.Glob(dataDir + "/**/*.source")
	if err != nil {
		return nil, err
	}
	splits := make([]string, 0, len(sourcePaths))
	for _, sourcePath := range sourcePaths {
		base := strings.TrimSuffix(sourcePath, ".source")
		if _, statErr := os.Stat(base + ".target"); statErr != nil {
			logger.Warn().Msgf("Skipping %s: no matching .target file",
				sourcePath)
			continue
		}
		split, relErr := filepath.Rel(dataDir, base)
		if relErr != nil {
			return nil, relErr
		}
		splits = append(splits, filepath.ToSlash(split))
	}
	sort.Strings(splits)
	return splits, nil
}

// SplitReport summarizes one encoded split.
type SplitReport struct {
	Split       string
	Examples    int
	CacheBytes  uint64
	MaxSource   int
	MaxTarget   int
	Sortish     seq2seq_data.PaddingStats
	RandomOrder seq2seq_data.PaddingStats
}

// ReportSplit
// Measures the dataset of a split: cache sizes and the padding cost of
// sortish batching against a plain random order.
func ReportSplit(tok seq2seq_data.Tokenizer, cfg *config.Config,
	split string, ds *seq2seq_data.SummarizationDataset) (SplitReport,
	error) {
	report := SplitReport{Split: split, Examples: ds.Len()}
	opts := cfg.RawDataOptions(split)
	tokName := seq2seq_data.TokName(tok)
	cachePaths := []string{
		seq2seq_data.CachePath(seq2seq_data.LocalPath(
			seq2seq_data.SourcePath(cfg.DataDir, split),
			opts.Encode.MirrorDir), tokName, opts.MaxSourceLength),
		seq2seq_data.CachePath(seq2seq_data.LocalPath(
			seq2seq_data.TargetPath(cfg.DataDir, split, opts.TgtSuffix),
			opts.Encode.MirrorDir), tokName, opts.MaxTargetLength),
	}
	for _, cachePath := range cachePaths {
		if stat, err := os.Stat(cachePath); err == nil {
			report.CacheBytes += uint64(stat.Size())
		}
	}

	srcLens := ds.SrcLens()
	for _, l := range srcLens {
		if l > report.MaxSource {
			report.MaxSource = l
		}
	}
	for _, l := range ds.TgtLens() {
		if l > report.MaxTarget {
			report.MaxTarget = l
		}
	}

	sampler, err := ds.MakeSortishSampler(cfg.BatchSize,
		cfg.SamplerOptions()...)
	if err != nil {
		return report, err
	}
	if report.Sortish, err = seq2seq_data.ComputePaddingStats(srcLens,
		sampler.Order(), cfg.BatchSize); err != nil {
		return report, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	report.RandomOrder, err = seq2seq_data.ComputePaddingStats(srcLens,
		rng.Perm(len(srcLens)), cfg.BatchSize)
	return report, err
}

func logReport(report SplitReport) {
	logger.Info().Msgf("%s: %d examples, caches %s, longest source %d, "+
		"longest target %d", report.Split, report.Examples,
		humanize.Bytes(report.CacheBytes), report.MaxSource,
		report.MaxTarget)
	logger.Info().Msgf("%s: sortish padding %.1f%% over %d batches "+
		"(mean width %.1f), random order padding %.1f%% (mean width %.1f)",
		report.Split, report.Sortish.PaddingRatio*100,
		report.Sortish.Batches, report.Sortish.MeanWidth,
		report.RandomOrder.PaddingRatio*100, report.RandomOrder.MeanWidth)
}

func showExamples(tok seq2seq_data.Tokenizer,
	ds *seq2seq_data.SummarizationDataset, count int) error {
	for idx := 0; idx < count && idx < ds.Len(); idx++ {
		item, err := ds.Get(idx)
		if err != nil {
			return err
		}
		source, err := tok.Decode(item.InputIds)
		if err != nil {
			return err
		}
		target, err := tok.Decode(item.DecoderInputIds)
		if err != nil {
			return err
		}
		logger.Info().Msgf("Example %d source: %s", idx, source)
		logger.Info().Msgf("Example %d target: %s", idx, target)
	}
	return nil
}

func main() {
	flags := pflag.CommandLine
	config.RegisterFlags(flags)
	configPath := flags.String("config", "", "YAML config file")
	allSplits := flags.Bool("all_splits", false,
		"encode every split found under data_dir")
	showCount := flags.Int("show_examples", 0,
		"decode and log the first n examples of each split")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if logger, err = cfg.NewLogger(); err != nil {
		seq2seq_data.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	seq2seq_data.SetLogger(logger)

	logger.Info().Msgf("Tokenizer definition: %s", cfg.Tokenizer)
	logger.Info().Msgf("Data source: %s", cfg.DataDir)
	tok, err := seq2seq_data.NewTokenizer(cfg.Tokenizer,
		cfg.TokenizerOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot load tokenizer")
	}

	splits := []string{cfg.TypePath}
	if *allSplits {
		if splits, err = FindSplits(cfg.DataDir); err != nil {
			logger.Fatal().Err(err).Msg("Cannot scan data dir")
		}
		if len(splits) == 0 {
			logger.Fatal().Msgf("No .source/.target pairs under %s",
				cfg.DataDir)
		}
	}

	for _, split := range splits {
		ds, dsErr := seq2seq_data.FromRawData(tok, cfg.DataDir,
			cfg.RawDataOptions(split))
		if dsErr != nil {
			logger.Fatal().Err(dsErr).Msgf("Cannot encode split %s", split)
		}
		report, reportErr := ReportSplit(tok, cfg, split, ds)
		if reportErr != nil {
			logger.Fatal().Err(reportErr).Msgf("Cannot report split %s",
				split)
		}
		logReport(report)
		if showErr := showExamples(tok, ds, *showCount); showErr != nil {
			logger.Fatal().Err(showErr).Msg("Cannot decode examples")
		}
	}
}
