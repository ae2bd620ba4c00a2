package upload

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// partSize is the streamed chunk size per object write.
const partSize = 8 << 20 // 8 MiB

// ObjectStore is the write-only storage surface the uploader needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64) error
}

// R2Store uploads through an S3-compatible endpoint using the
// temporary credentials minted for one push.
type R2Store struct {
	Client *minio.Client
	Bucket string
}

// NewR2Store builds a store from the temp-credential coordinates. The
// endpoint may carry a scheme; plain hosts default to TLS.
func NewR2Store(endpoint, bucket, accessKey, secretKey, sessionToken string) (*R2Store, error) {
	host := endpoint
	secure := true
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		host = parsed.Host
		secure = parsed.Scheme != "http"
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, sessionToken),
		Secure: secure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	return &R2Store{Client: client, Bucket: bucket}, nil
}

func (s *R2Store) Upload(ctx context.Context, key string, reader io.Reader, size int64) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, minio.PutObjectOptions{
		PartSize: partSize,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
