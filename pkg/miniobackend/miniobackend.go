// Package miniobackend implements an S3/MinIO-backed store.Backend, one
// object per digest.
package miniobackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/relayrun/enact/internal/store"
)

// Config configures the MinIO/S3 connection and target bucket.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Backend is a store.Backend backed by a MinIO or S3-compatible bucket,
// one object per content digest.
type Backend struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// New validates cfg and connects a MinIO client. The bucket is created
// lazily on first use, not here.
func New(cfg Config) (*Backend, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("miniobackend: endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("miniobackend: access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("miniobackend: bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("miniobackend: init client: %w", err)
	}

	return &Backend{client: client, bucketName: bucket, region: region}, nil
}

func (b *Backend) ensureBucket(ctx context.Context) error {
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.bucketName)
		if err != nil {
			b.initErr = err
			return
		}
		if exists {
			return
		}
		b.initErr = b.client.MakeBucket(ctx, b.bucketName, minio.MakeBucketOptions{Region: b.region})
	})
	return b.initErr
}

func objectKey(digest string) string {
	return "resources/" + digest
}

// Put uploads data under digest if no object exists there yet. Existing
// digest content is immutable, so an existing object is left untouched.
func (b *Backend) Put(ctx context.Context, digest string, data []byte) error {
	if err := b.ensureBucket(ctx); err != nil {
		return fmt.Errorf("miniobackend: ensure bucket: %w", err)
	}
	has, err := b.Has(ctx, digest)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = b.client.PutObject(ctx, b.bucketName, objectKey(digest), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

// Has reports whether an object exists for digest.
func (b *Backend) Has(ctx context.Context, digest string) (bool, error) {
	if err := b.ensureBucket(ctx); err != nil {
		return false, fmt.Errorf("miniobackend: ensure bucket: %w", err)
	}
	_, err := b.client.StatObject(ctx, b.bucketName, objectKey(digest), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get downloads the object stored under digest.
func (b *Backend) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	if err := b.ensureBucket(ctx); err != nil {
		return nil, false, fmt.Errorf("miniobackend: ensure bucket: %w", err)
	}
	obj, err := b.client.GetObject(ctx, b.bucketName, objectKey(digest), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

var _ store.Backend = (*Backend)(nil)
