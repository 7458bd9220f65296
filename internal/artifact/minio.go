// Package artifact uploads the rendered report and diff for each run to
// S3-compatible object storage, keyed by run id.
package artifact

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore uploads run artifacts to one bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the object storage endpoint and ensures the
// bucket exists.
func NewObjectStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &ObjectStore{client: client, bucket: bucket}, nil
}

// UploadRun stores the summary text and diff JSON under runs/<runID>/.
func (s *ObjectStore) UploadRun(ctx context.Context, runID, summary string, diffJSON []byte) error {
	objects := []struct {
		name        string
		body        []byte
		contentType string
	}{
		{"runs/" + runID + "/summary.md", []byte(summary), "text/markdown"},
		{"runs/" + runID + "/diff.json", diffJSON, "application/json"},
	}

	for _, obj := range objects {
		_, err := s.client.PutObject(ctx, s.bucket, obj.name, bytes.NewReader(obj.body), int64(len(obj.body)),
			minio.PutObjectOptions{ContentType: obj.contentType})
		if err != nil {
			return fmt.Errorf("upload %s: %w", obj.name, err)
		}
	}
	return nil
}
