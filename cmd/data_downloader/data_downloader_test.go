package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFiles(t *testing.T) {
	assert.Equal(t, []string{
		"train.source", "train.target_pseudo",
		"val.source", "val.target",
	}, SplitFiles([]string{"train", "val"}, "_pseudo"))
}

func TestDownloadSplits(t *testing.T) {
	files := map[string]string{
		"/cnn/train.source": "one\ntwo\n",
		"/cnn/train.target": "1\n2\n",
		"/cnn/val.source":   "three\n",
		"/cnn/val.target":   "3\n",
	}
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, ok := files[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte(body))
			}
		}))
	defer server.Close()

	dest := t.TempDir()
	total, err := DownloadSplits(server.URL+"/cnn/", dest,
		[]string{"train", "val"}, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(8+4+6+2), total)

	contents, err := os.ReadFile(filepath.Join(dest, "val.source"))
	require.NoError(t, err)
	assert.Equal(t, "three\n", string(contents))

	_, err = DownloadSplits(server.URL+"/cnn", dest, []string{"test"}, "")
	assert.Error(t, err)

	_, err = DownloadSplits(dest, dest, []string{"train"}, "")
	assert.Error(t, err)
}
