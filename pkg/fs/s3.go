package fs

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// S3Config is the configuration for a S3-compatible storage provider
type S3Config struct {
	// S3 Bucket to store objects
	Bucket string `toml:"bucket"`
	// Region of the S3 service
	Region string `toml:"region"`
	// EndpointURL is an HTTP endpoint of the S3 API
	EndpointURL string `toml:"endpoint_url"`
}

// S3 implements object storage for S3-compatible providers.
type S3 struct {
	api      s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3(c S3Config) (*S3, error) {
	cfg := aws.NewConfig().
		WithEndpoint(c.EndpointURL).
		WithRegion(c.Region)
	sess, err := session.NewSessionWithOptions(session.Options{Config: *cfg})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize S3 session")
	}
	return &S3{
		api:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   c.Bucket,
	}, nil
}

func (s *S3) Open(key string) (http.File, error) {
	resp, err := s.api.GetObject(&s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok {
			if awsErr.Code() == s3.ErrCodeNoSuchKey || awsErr.Code() == "NotFound" {
				return nil, os.ErrNotExist
			}
		}
		return nil, errors.Wrapf(err, "failed to get object: %s", key)
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read object: %s", key)
	}

	var modified time.Time
	if resp.LastModified != nil {
		modified = *resp.LastModified
	}

	return &object{
		Reader:   bytes.NewReader(data),
		name:     path.Base(key),
		size:     int64(len(data)),
		modified: modified,
	}, nil
}

func (s *S3) Create(ctx context.Context, key string, reader io.Reader) (int64, error) {
	logger := log.WithField("key", key)

	logger.Infof("uploading object to %s", s.bucket)
	r := &readerWithN{Reader: reader}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   r,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to upload object")
	}

	logger.Debugf("written %d bytes", r.n)
	return int64(r.n), nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	// DeleteObject succeeds for missing keys, which matches the
	// idempotent delete contract of Storage.
	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	return err
}

// object adapts a fetched S3 blob to http.File for serving.
type object struct {
	*bytes.Reader
	name     string
	size     int64
	modified time.Time
}

func (o *object) Close() error { return nil }

func (o *object) Readdir(count int) ([]os.FileInfo, error) {
	return nil, errors.New("object is not a directory")
}

func (o *object) Stat() (os.FileInfo, error) { return objectInfo{o}, nil }

type objectInfo struct {
	o *object
}

func (i objectInfo) Name() string       { return i.o.name }
func (i objectInfo) Size() int64        { return i.o.size }
func (i objectInfo) Mode() os.FileMode  { return 0444 }
func (i objectInfo) ModTime() time.Time { return i.o.modified }
func (i objectInfo) IsDir() bool        { return false }
func (i objectInfo) Sys() interface{}   { return nil }

type readerWithN struct {
	io.Reader
	n int
}

func (r *readerWithN) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	r.n += n
	return
}
