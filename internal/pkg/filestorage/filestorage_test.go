package filestorage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchiveStore(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	key, err := archive.Store(context.Background(), "2-1", "Grades.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "2-1/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	data, err := os.ReadFile(archive.GetFullPath(key))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalArchiveCancelledContext(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = archive.Store(ctx, "1-1", "a.pdf", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObjectKeySanitisesSemester(t *testing.T) {
	key := objectKey("../../etc", "sheet")
	assert.True(t, strings.HasPrefix(key, "etc/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)

	assert.True(t, strings.HasPrefix(objectKey("", "a.pdf"), "unsorted/"))
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiveStore(t *testing.T) {
	client := &fakeS3{}
	archive := NewS3Archive(client, "grade-sheets", "/uploads/")

	key, err := archive.Store(context.Background(), "3-2", "sheet.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/3-2/"), key)
	assert.Equal(t, "grade-sheets", *client.input.Bucket)
	assert.Equal(t, key, *client.input.Key)
	assert.Equal(t, "application/pdf", *client.input.ContentType)
	assert.Equal(t, "3-2", client.input.Metadata["semester"])
	assert.Equal(t, []byte("pdf"), client.body)

	client.err = errors.New("boom")
	_, err = archive.Store(context.Background(), "3-2", "sheet.pdf", []byte("pdf"))
	assert.ErrorContains(t, err, "upload to s3")
}
