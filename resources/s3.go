package resources

import (
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// S3Client is the subset of the S3 API used to fetch split files.
type S3Client interface {
	GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	HeadObject(input *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
}

// NewS3Client builds the client used for `s3://` resources. Tests replace
// it with a mock.
var NewS3Client = func() (S3Client, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create AWS session")
	}
	return s3.New(sess), nil
}

func isS3Uri(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

// ParseS3Uri splits `s3://bucket/prefix` into the bucket and the object key
// for `rsrc` beneath the prefix.
func ParseS3Uri(uri string, rsrc string) (bucket string, key string,
	err error) {
	if !isS3Uri(uri) {
		return "", "", errors.Errorf("not an s3 uri: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", errors.Errorf("s3 uri has no bucket: %s", uri)
	}
	prefix := ""
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, path.Join(prefix, rsrc), nil
}

func fetchS3Object(svc S3Client, bucket string, key string) (io.ReadCloser,
	error) {
	out, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot get s3://%s/%s", bucket, key)
	}
	return out.Body, nil
}

// FetchS3 streams `rsrc` from under an `s3://bucket/prefix` uri.
func FetchS3(uri string, rsrc string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3Uri(uri, rsrc)
	if err != nil {
		return nil, err
	}
	svc, err := NewS3Client()
	if err != nil {
		return nil, err
	}
	return fetchS3Object(svc, bucket, key)
}

// SizeS3 returns the content length of `rsrc` under an s3 uri.
func SizeS3(uri string, rsrc string) (uint, error) {
	bucket, key, err := ParseS3Uri(uri, rsrc)
	if err != nil {
		return 0, err
	}
	svc, err := NewS3Client()
	if err != nil {
		return 0, err
	}
	out, err := svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, errors.Wrapf(err, "cannot head s3://%s/%s", bucket, key)
	}
	return uint(aws.Int64Value(out.ContentLength)), nil
}
