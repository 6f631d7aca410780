package main

import (
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/wbrown/seq2seq_data"
	"github.com/wbrown/seq2seq_data/resources"
)

var logger = seq2seq_data.Logger

// SplitFiles returns the source and target file names of each split.
func SplitFiles(splits []string, tgtSuffix string) []string {
	files := make([]string, 0, len(splits)*2)
	for _, split := range splits {
		target := split + ".target"
		if split == "train" {
			target += tgtSuffix
		}
		files = append(files, split+".source", target)
	}
	return files
}

// DownloadSplits
// Mirrors the split files under dataDir into dest and returns the total
// size of the local copies.
func DownloadSplits(dataDir string, dest string, splits []string,
	tgtSuffix string) (uint64, error) {
	if !resources.IsRemote(dataDir) {
		return 0, errors.Errorf("%s is not a remote data dir", dataDir)
	}
	dataDir = strings.TrimSuffix(dataDir, "/")
	var total uint64
	for _, name := range SplitFiles(splits, tgtSuffix) {
		localPath, err := resources.Mirror(dataDir, name, dest)
		if err != nil {
			return total, err
		}
		stat, err := os.Stat(localPath)
		if err != nil {
			return total, err
		}
		total += uint64(stat.Size())
	}
	return total, nil
}

func main() {
	dataDir := pflag.String("data_dir", "",
		"remote data dir: http(s):// or s3:// URI")
	destPath := pflag.String("dest", "./", "where to download the splits to")
	splits := pflag.StringSlice("splits", []string{"train", "val", "test"},
		"splits to fetch")
	tgtSuffix := pflag.String("tgt_suffix", "",
		"suffix of the train target file")
	pflag.Parse()
	if *dataDir == "" {
		pflag.Usage()
		logger.Fatal().Msg("Must provide --data_dir")
	}

	total, err := DownloadSplits(*dataDir, *destPath, *splits, *tgtSuffix)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error downloading splits")
	}
	logger.Info().Msgf("%d splits in %s, %s on disk", len(*splits),
		*destPath, humanize.Bytes(total))
}
