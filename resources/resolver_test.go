package resources

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// S3MockClient is a mock implementation of S3Client.
type S3MockClient struct {
	Objects        map[string]string
	GetObjectError error
	Gets           int
}

func (m *S3MockClient) GetObject(input *s3.GetObjectInput) (
	*s3.GetObjectOutput,
	error,
) {
	m.Gets++
	if m.GetObjectError != nil {
		return nil, m.GetObjectError
	}
	body, ok := m.Objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (m *S3MockClient) HeadObject(input *s3.HeadObjectInput) (
	*s3.HeadObjectOutput,
	error,
) {
	body, ok := m.Objects[*input.Bucket+"/"+*input.Key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func withMockS3(t *testing.T, mock *S3MockClient) {
	prior := NewS3Client
	NewS3Client = func() (S3Client, error) { return mock, nil }
	t.Cleanup(func() { NewS3Client = prior })
}

func TestParseS3Uri(t *testing.T) {
	bucket, key, err := ParseS3Uri("s3://data/cnn_dm", "train.source")
	require.NoError(t, err)
	assert.Equal(t, "data", bucket)
	assert.Equal(t, "cnn_dm/train.source", key)

	bucket, key, err = ParseS3Uri("s3://data", "val.target")
	require.NoError(t, err)
	assert.Equal(t, "data", bucket)
	assert.Equal(t, "val.target", key)

	_, _, err = ParseS3Uri("s3:///nobucket", "x")
	assert.Error(t, err)
	_, _, err = ParseS3Uri("/local/path", "x")
	assert.Error(t, err)
}

func TestMirrorLocalReturnsInPlace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "train.source")
	require.NoError(t, os.WriteFile(src, []byte("a\nb\n"), 0644))

	mirrored, err := Mirror(dir, "train.source", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, src, mirrored)
}

func TestMirrorHTTPSkipsSameSize(t *testing.T) {
	var gets int32
	body := "first line\nsecond line\n"
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				atomic.AddInt32(&gets, 1)
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(body))
			}
		}))
	defer server.Close()

	mirrorDir := t.TempDir()
	mirrored, err := Mirror(server.URL+"/data", "val.source", mirrorDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(mirrorDir, "val.source"), mirrored)
	contents, err := os.ReadFile(mirrored)
	require.NoError(t, err)
	assert.Equal(t, body, string(contents))

	_, err = Mirror(server.URL+"/data", "val.source", mirrorDir)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gets))
}

func TestMirrorS3(t *testing.T) {
	mock := &S3MockClient{Objects: map[string]string{
		"bucket/cnn/test.target": "summary one\nsummary two\n",
	}}
	withMockS3(t, mock)

	mirrorDir := t.TempDir()
	mirrored, err := Mirror("s3://bucket/cnn", "test.target", mirrorDir)
	require.NoError(t, err)
	contents, err := os.ReadFile(mirrored)
	require.NoError(t, err)
	assert.Equal(t, "summary one\nsummary two\n", string(contents))
	assert.Equal(t, 1, mock.Gets)
}

func TestFetchS3Error(t *testing.T) {
	mock := &S3MockClient{GetObjectError: io.ErrClosedPipe}
	withMockS3(t, mock)

	_, err := FetchS3("s3://bucket/cnn", "train.source")
	assert.Error(t, err)
}

func TestReadMmap(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.bin")
	require.NoError(t, os.WriteFile(full, []byte{1, 2, 3}, 0644))
	data, release, err := ReadMmap(full)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, []byte(data))
	require.NoError(t, release())

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	data, release, err = ReadMmap(empty)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NoError(t, release())

	_, _, err = ReadMmap(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestSpecialPieces(t *testing.T) {
	piece := func(text string,
		kind sentencepiece.ModelProto_SentencePiece_Type,
	) *sentencepiece.ModelProto_SentencePiece {
		return &sentencepiece.ModelProto_SentencePiece{
			Piece: proto.String(text),
			Score: proto.Float32(0),
			Type:  kind.Enum(),
		}
	}
	model := &sentencepiece.ModelProto{
		Pieces: []*sentencepiece.ModelProto_SentencePiece{
			piece("<pad>", sentencepiece.ModelProto_SentencePiece_CONTROL),
			piece("</s>", sentencepiece.ModelProto_SentencePiece_CONTROL),
			piece("<unk>", sentencepiece.ModelProto_SentencePiece_UNKNOWN),
			piece("▁the", sentencepiece.ModelProto_SentencePiece_NORMAL),
		},
	}
	modelPath := filepath.Join(t.TempDir(), "spiece.model")
	encoded, err := proto.Marshal(model)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(modelPath, encoded, 0644))

	loaded, err := LoadSentencePieceModel(modelPath)
	require.NoError(t, err)
	specials := SpecialPieces(loaded)
	assert.Equal(t, map[string]int{"<pad>": 0, "</s>": 1, "<unk>": 2},
		specials)
}
