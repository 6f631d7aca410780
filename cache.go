package seq2seq_data

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/wbrown/seq2seq_data/resources"
	"github.com/wbrown/seq2seq_data/types"
)

// CacheVersion is bumped when the layout of the cache file changes.
const CacheVersion = 1

// CacheHeader describes what a cache file was built with. It is informative
// only: a cache is reused whenever it exists at the derived path.
type CacheHeader struct {
	Version   int    `msgpack:"version"`
	Tokenizer string `msgpack:"tokenizer"`
	MaxLength int    `msgpack:"max_length"`
	// TokenWidth is the byte width of each stored id, 2 or 4.
	TokenWidth int `msgpack:"token_width"`
}

type cachedExample struct {
	InputIds      []byte `msgpack:"input_ids"`
	AttentionMask []byte `msgpack:"attention_mask"`
}

type cacheFile struct {
	CacheHeader
	Examples []cachedExample `msgpack:"examples"`
}

// CachePath
// Derives the cache file for an encoded data file:
// `<dataPath>_<tokName><maxLength>.pkl`.
func CachePath(dataPath string, tokName string, maxLength int) string {
	return fmt.Sprintf("%s_%s%d.pkl", dataPath, tokName, maxLength)
}

// SaveCache
// Writes examples to cachePath. The file is written next to its final
// location and renamed into place once complete.
func SaveCache(cachePath string, header CacheHeader,
	examples []types.EncodedExample) error {
	useUint32 := false
	for idx := range examples {
		if !examples[idx].InputIds.FitsUint16() {
			useUint32 = true
			break
		}
	}
	header.Version = CacheVersion
	header.TokenWidth = types.TokenSize
	if useUint32 {
		header.TokenWidth = types.TokenSize32
	}
	contents := cacheFile{
		CacheHeader: header,
		Examples:    make([]cachedExample, len(examples)),
	}
	for idx, example := range examples {
		ids, err := example.InputIds.ToBin(useUint32)
		if err != nil {
			return errors.Wrapf(err, "cannot serialize example %d", idx)
		}
		contents.Examples[idx] = cachedExample{
			InputIds:      *ids,
			AttentionMask: []byte(example.AttentionMask),
		}
	}
	encoded, err := msgpack.Marshal(&contents)
	if err != nil {
		return errors.Wrapf(err, "cannot encode cache %s", cachePath)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(cachePath),
		filepath.Base(cachePath)+".*.partial")
	if err != nil {
		return errors.Wrapf(err, "error opening '%s' for write", cachePath)
	}
	_, writeErr := tmpFile.Write(encoded)
	closeErr := tmpFile.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpFile.Name())
		return errors.Wrapf(writeErr, "error writing '%s'", cachePath)
	}
	if renameErr := os.Rename(tmpFile.Name(), cachePath); renameErr != nil {
		os.Remove(tmpFile.Name())
		return errors.Wrapf(renameErr, "error placing '%s'", cachePath)
	}
	return nil
}

// LoadCache
// Reads a cache file written by SaveCache and returns its header and
// examples.
func LoadCache(cachePath string) (CacheHeader, []types.EncodedExample,
	error) {
	data, release, err := resources.ReadMmap(cachePath)
	if err != nil {
		return CacheHeader{}, nil, errors.Wrapf(err,
			"cannot open cache %s", cachePath)
	}
	defer release()

	var contents cacheFile
	if err = msgpack.Unmarshal(data, &contents); err != nil {
		return CacheHeader{}, nil, errors.Wrapf(err,
			"cannot decode cache %s", cachePath)
	}
	header := contents.CacheHeader
	if header.TokenWidth != types.TokenSize &&
		header.TokenWidth != types.TokenSize32 {
		return header, nil, errors.Errorf(
			"cache %s has invalid token width %d", cachePath,
			header.TokenWidth)
	}

	examples := make([]types.EncodedExample, len(contents.Examples))
	for idx, cached := range contents.Examples {
		// Nothing may alias the mapping once it is released.
		var ids *types.Tokens
		if header.TokenWidth == types.TokenSize32 {
			ids = types.TokensFromBin32(&cached.InputIds)
		} else {
			ids = types.TokensFromBin(&cached.InputIds)
		}
		if len(*ids) != len(cached.AttentionMask) {
			return header, nil, errors.Errorf(
				"cache %s: example %d has %d ids but %d mask entries",
				cachePath, idx, len(*ids), len(cached.AttentionMask))
		}
		mask := make(types.Mask, len(cached.AttentionMask))
		copy(mask, cached.AttentionMask)
		examples[idx] = types.EncodedExample{
			InputIds:      *ids,
			AttentionMask: mask,
		}
	}
	return header, examples, nil
}
