package fs

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client/metadata"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3_Create(t *testing.T) {
	files := make(map[string][]byte)
	stor := newMockS3(files)

	written, err := stor.Create(testCtx, "1/test", bytes.NewBuffer([]byte{1, 5, 7, 8, 3}))
	assert.NoError(t, err)
	assert.EqualValues(t, 5, written)

	d, ok := files["1/test"]
	assert.True(t, ok)
	assert.EqualValues(t, 5, len(d))
}

func TestS3_Open(t *testing.T) {
	files := map[string][]byte{"1/test": []byte("hello")}
	stor := newMockS3(files)

	file, err := stor.Open("1/test")
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	assert.NoError(t, err)
	assert.EqualValues(t, "hello", data)

	stat, err := file.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 5, stat.Size())
	assert.Equal(t, "test", stat.Name())
}

func TestS3_OpenMissing(t *testing.T) {
	stor := newMockS3(make(map[string][]byte))

	_, err := stor.Open("1/test")
	assert.True(t, os.IsNotExist(err))
}

func TestS3_Delete(t *testing.T) {
	files := map[string][]byte{"1/test": {1, 2, 3}}
	stor := newMockS3(files)

	err := stor.Delete(testCtx, "1/test")
	assert.NoError(t, err)

	_, ok := files["1/test"]
	assert.False(t, ok)

	// S3 deletes are idempotent
	assert.NoError(t, stor.Delete(testCtx, "1/test"))
}

type mockS3API struct {
	s3iface.S3API
	files map[string][]byte
}

func newMockS3(files map[string][]byte) *S3 {
	api := &mockS3API{files: files}
	return &S3{
		api:      api,
		uploader: s3manager.NewUploaderWithClient(api),
		bucket:   "mock-bucket",
	}
}

func (m *mockS3API) PutObjectRequest(input *s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput) {
	content, _ := io.ReadAll(input.Body)
	req := request.New(aws.Config{}, metadata.ClientInfo{}, request.Handlers{}, nil, &request.Operation{}, nil, nil)
	m.files[*input.Key] = content
	return req, &s3.PutObjectOutput{}
}

func (m *mockS3API) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	data, ok := m.files[*input.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "", nil)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *mockS3API) DeleteObjectWithContext(_ aws.Context, input *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(m.files, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}
