package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader writes audio to a Google Cloud Storage bucket and hands out
// gs:// URIs for long-running recognition.
type GCSUploader struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSUploader creates a client using the credentials file when set and
// application default credentials otherwise.
func NewGCSUploader(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, prefix: prefix}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, localPath, mimeType string) (*Object, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	name := objectName(u.prefix, localPath)
	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload %s: %w", name, err)
	}

	return &Object{
		URI:      fmt.Sprintf("gs://%s/%s", u.bucket, name),
		MIMEType: mimeType,
		Name:     name,
	}, nil
}

func (u *GCSUploader) Delete(ctx context.Context, obj *Object) error {
	if obj == nil {
		return nil
	}
	err := u.client.Bucket(u.bucket).Object(obj.Name).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", obj.Name, err)
	}
	return nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
