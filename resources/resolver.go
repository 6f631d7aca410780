package resources

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// WriteCounter counts the number of bytes written to it, and every 10 seconds,
// it logs a message reporting the number of bytes written so far.
type WriteCounter struct {
	Total    uint64
	Last     time.Time
	Reported bool
	Path     string
	Size     uint64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	if time.Since(wc.Last).Seconds() > 10 {
		wc.Reported = true
		wc.Last = time.Now()
		Logger.Info().Msgf("Downloading %s... %s / %s completed.",
			wc.Path, humanize.Bytes(wc.Total), humanize.Bytes(wc.Size))
	}
	return n, nil
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// IsRemote reports whether uri names something that must be fetched rather
// than opened from the local filesystem.
func IsRemote(uri string) bool {
	return isS3Uri(uri) || isValidUrl(uri)
}

// Fetch
// Given a base URI and a resource name, determines if the resource is local,
// on S3, remote, or from huggingface.co. Local resources are opened
// directly; everything else is streamed from its origin.
func Fetch(uri string, rsrc string) (io.ReadCloser, error) {
	if isS3Uri(uri) {
		return FetchS3(uri, rsrc)
	} else if isValidUrl(uri) {
		return FetchHTTP(uri, rsrc, "")
	} else if _, err := os.Stat(path.Join(uri, rsrc)); !os.IsNotExist(err) {
		handle, fileErr := os.Open(path.Join(uri, rsrc))
		if fileErr != nil {
			return nil, errors.Wrapf(fileErr, "error opening %s/%s",
				uri, rsrc)
		}
		return handle, nil
	} else {
		return FetchHuggingFace(uri, rsrc)
	}
}

// Size
// Given a base URI and a resource name, determine the size of the resource.
func Size(uri string, rsrc string) (uint, error) {
	if isS3Uri(uri) {
		return SizeS3(uri, rsrc)
	} else if isValidUrl(uri) {
		return SizeHTTP(uri, rsrc, "")
	} else if fsz, err := os.Stat(path.Join(uri, rsrc)); !os.IsNotExist(err) {
		return uint(fsz.Size()), nil
	} else {
		return SizeHuggingFace(uri, rsrc)
	}
}

// Mirror
// Makes `rsrc` under `uri` available on the local filesystem and returns its
// path. Local resources are returned in place. Remote resources are copied
// into `dir`, skipping the download when a file of the same size is already
// there.
func Mirror(uri string, rsrc string, dir string) (string, error) {
	localPath := path.Join(uri, rsrc)
	if !IsRemote(uri) {
		if _, err := os.Stat(localPath); err == nil {
			return localPath, nil
		}
	}
	if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
		return "", errors.Wrapf(mkErr, "cannot create mirror dir %s", dir)
	}
	targetPath := filepath.Join(dir, rsrc)
	rsrcSize, sizeErr := Size(uri, rsrc)
	if sizeErr != nil {
		return "", errors.Wrapf(sizeErr, "cannot retrieve `%s` from `%s`",
			rsrc, uri)
	}
	if targetStat, statErr := os.Stat(targetPath); statErr == nil &&
		uint(targetStat.Size()) == rsrcSize {
		Logger.Info().Msgf("Skipping %s/%s... already exists, "+
			"and of the correct size.", uri, rsrc)
		return targetPath, nil
	}

	rsrcReader, fetchErr := Fetch(uri, rsrc)
	if fetchErr != nil {
		return "", errors.Wrapf(fetchErr, "cannot retrieve `%s` from `%s`",
			rsrc, uri)
	}
	defer rsrcReader.Close()

	tmpFile, tmpErr := os.CreateTemp(dir, rsrc+".*.partial")
	if tmpErr != nil {
		return "", errors.Wrapf(tmpErr, "error opening '%s' for write",
			targetPath)
	}
	counter := &WriteCounter{
		Last: time.Now(),
		Path: fmt.Sprintf("%s/%s", uri, rsrc),
		Size: uint64(rsrcSize),
	}
	bytesDownloaded, ioErr := io.Copy(tmpFile,
		io.TeeReader(rsrcReader, counter))
	closeErr := tmpFile.Close()
	if ioErr == nil {
		ioErr = closeErr
	}
	if ioErr != nil {
		os.Remove(tmpFile.Name())
		return "", errors.Wrapf(ioErr, "error downloading '%s'", rsrc)
	}
	if renameErr := os.Rename(tmpFile.Name(), targetPath); renameErr != nil {
		os.Remove(tmpFile.Name())
		return "", errors.Wrapf(renameErr, "error placing '%s'", targetPath)
	}
	Logger.Info().Msgf("Downloaded %s/%s... %s completed.", uri, rsrc,
		humanize.Bytes(uint64(bytesDownloaded)))
	return targetPath, nil
}

// ResolveTokenizerFile
// Resolves a tokenizer resource such as `tokenizer.json` or `spiece.model`
// for a local directory, URL, S3 prefix or huggingface.co model id. Remote
// files are cached under `cacheDir`.
func ResolveTokenizerFile(id string, file string, cacheDir string) (string,
	error) {
	if stat, err := os.Stat(id); err == nil && !stat.IsDir() {
		return id, nil
	}
	dir := filepath.Join(cacheDir, strings.NewReplacer(
		"/", "--", ":", "_").Replace(id))
	return Mirror(id, file, dir)
}
