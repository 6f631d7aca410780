package seq2seq_data

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/seq2seq_data/types"
)

func quietEncodeOptions() EncodeOptions {
	opts := NewEncodeOptions()
	opts.Quiet = true
	return opts
}

func writeLines(t *testing.T, dir string, name string, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestCachePath(t *testing.T) {
	assert.Equal(t, "data/train.source_1024.pkl",
		CachePath("data/train.source", "", 1024))
	assert.Equal(t, "data/val.target_T556.pkl",
		CachePath("data/val.target", "T5", 56))
}

func TestEncodeFileCachesAndSkipsTokenizer(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "train.source",
		"the cat sat\n  on the mat  \nthe end\n")
	tok := newWordTokenizer("words", KindBart)

	first, err := EncodeFile(tok, path, 8, quietEncodeOptions())
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.FileExists(t, CachePath(path, "", 8))
	calls := tok.calls
	assert.Equal(t, 3, calls)

	second, err := EncodeFile(tok, path, 8, quietEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, calls, tok.calls)
	assert.Equal(t, first, second)

	assert.Equal(t, types.Tokens{6, 3, 7, 1, 1, 1, 1, 1}, first[1].InputIds)
	assert.Equal(t, types.Mask{1, 1, 1, 0, 0, 0, 0, 0},
		first[1].AttentionMask)
}

func TestEncodeFileOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "val.target", "one two\n")
	tok := newWordTokenizer("words", KindBart)

	_, err := EncodeFile(tok, path, 4, quietEncodeOptions())
	require.NoError(t, err)
	opts := quietEncodeOptions()
	opts.OverwriteCache = true
	_, err = EncodeFile(tok, path, 4, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, tok.calls)
}

func TestEncodeFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "test.source",
		"alpha beta gamma\n\ndelta\nalpha beta gamma\n")
	tok := newWordTokenizer("words", KindT5)
	opts := quietEncodeOptions()
	opts.Prefix = T5Prefix

	encoded, err := EncodeFile(tok, path, 6, opts)
	require.NoError(t, err)
	require.Len(t, encoded, 4)
	// The empty line still yields a fully padded example.
	assert.Equal(t, types.Tokens{3, 1, 1, 1, 1, 1}, encoded[1].InputIds)
	// Duplicate lines are memoized but not shared.
	assert.Equal(t, encoded[0], encoded[3])
	encoded[3].InputIds[0] = 99
	assert.NotEqual(t, types.Token(99), encoded[0].InputIds[0])

	header, loaded, err := LoadCache(CachePath(path, "T5", 6))
	require.NoError(t, err)
	assert.Equal(t, "words", header.Tokenizer)
	assert.Equal(t, 6, header.MaxLength)
	assert.Equal(t, types.TokenSize, header.TokenWidth)
	assert.Equal(t, CacheVersion, header.Version)
	encoded[3].InputIds[0] = encoded[0].InputIds[0]
	assert.Equal(t, encoded, loaded)
}

func TestEncodeFileStaleCacheIsReused(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "train.target", "short summary\n")
	first := newWordTokenizer("first-vocab", KindBart)
	second := newWordTokenizer("second-vocab", KindBart)
	second.bosEos = true

	fromFirst, err := EncodeFile(first, path, 5, quietEncodeOptions())
	require.NoError(t, err)
	// Both tokenizers map to the same cache name, so the second gets the
	// first one's ids back without being consulted.
	fromSecond, err := EncodeFile(second, path, 5, quietEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, fromFirst, fromSecond)
	assert.Equal(t, 0, second.calls)
}

func TestEncodeFileSanitizeAndSentences(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "train.source",
		"first\tpart :  done. Second sentence here.\n")
	tok := newWordTokenizer("words", KindBart)
	opts := quietEncodeOptions()
	opts.Sanitize = true
	opts.SentenceNewlines = true
	opts.PadToMaxLength = false

	encoded, err := EncodeFile(tok, path, 32, opts)
	require.NoError(t, err)
	require.Len(t, encoded, 1)
	decoded, err := tok.Decode(encoded[0].InputIds)
	require.NoError(t, err)
	assert.Equal(t, "first part: done. Second sentence here.", decoded)
}

func TestEncodeFileMissing(t *testing.T) {
	tok := newWordTokenizer("words", KindBart)
	_, err := EncodeFile(tok, filepath.Join(t.TempDir(), "nope.source"), 8,
		quietEncodeOptions())
	assert.Error(t, err)
}

func TestEncodeFileRemote(t *testing.T) {
	body := "remote line one\nremote line two\n"
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(body))
			}
		}))
	defer server.Close()

	opts := quietEncodeOptions()
	opts.MirrorDir = t.TempDir()
	tok := newWordTokenizer("words", KindBart)
	encoded, err := EncodeFile(tok, server.URL+"/cnn/val.source", 4, opts)
	require.NoError(t, err)
	require.Len(t, encoded, 2)
	assert.FileExists(t, CachePath(
		filepath.Join(opts.MirrorDir, "val.source"), "", 4))
}

func TestSaveCacheWideIds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.pkl")
	examples := []types.EncodedExample{
		{
			InputIds:      types.Tokens{70000, 5, 1},
			AttentionMask: types.Mask{1, 1, 0},
		},
		{InputIds: types.Tokens{}, AttentionMask: types.Mask{}},
	}
	require.NoError(t, SaveCache(path, CacheHeader{Tokenizer: "wide"},
		examples))
	header, loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, types.TokenSize32, header.TokenWidth)
	assert.Equal(t, examples, loaded)

	_, _, err = LoadCache(filepath.Join(t.TempDir(), "missing.pkl"))
	assert.Error(t, err)
}
