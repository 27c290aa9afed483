package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client the archive uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads grade sheets to an S3 bucket.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive creates an S3 archive. Keys are written below prefix when it is set.
func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Store uploads the file and returns its object key
func (a *S3Archive) Store(ctx context.Context, semester, filename string, data []byte) (string, error) {
	key := objectKey(semester, filename)
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"semester":          semester,
			"original-filename": filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}
