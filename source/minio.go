package source

import (
	"context"
	"fmt"
	"io"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ SourceProvider = (*MinioSource)(nil)

// MinioAPI is the subset of minio-go used here
type MinioAPI interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// MinioSource reads from S3-compatible stores through minio-go
type MinioSource struct {
	client   MinioAPI
	config   *config.MinioConfig
	throttle throttle
}

func NewMinioSource(cfg *config.MinioConfig, common *config.CommonSourceConfig) (*MinioSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioSource{
		client:   minioClient{client},
		config:   cfg,
		throttle: newThrottle(common),
	}, nil
}

func (m *MinioSource) Bucket() string {
	return m.config.Bucket
}

// ListObjects lists recursively; minio-go follows continuation tokens internally.
func (m *MinioSource) ListObjects(ctx context.Context, prefix string) ([]model.RemoteObject, error) {
	reqCtx, cancel, err := m.throttle.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var objects []model.RemoteObject
	for info := range m.client.ListObjects(reqCtx, m.config.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", prefix, info.Err)
		}
		objects = append(objects, model.RemoteObject{
			Key:     info.Key,
			ETag:    info.ETag,
			Size:    info.Size,
			ModTime: info.LastModified,
		})
	}
	return objects, nil
}

func (m *MinioSource) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	reqCtx, cancel, err := m.throttle.begin(ctx)
	if err != nil {
		return nil, err
	}

	body, err := m.client.GetObject(reqCtx, m.config.Bucket, key)
	if err != nil {
		cancel()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, m.config.Bucket, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return &contextAwareReader{ReadCloser: body, cancel: cancel}, nil
}

// minioClient adapts *minio.Client to MinioAPI
type minioClient struct {
	c *minio.Client
}

func (mc minioClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return mc.c.ListObjects(ctx, bucket, opts)
}

// GetObject stats the object before returning it; minio-go defers the request
// until the first read, which would otherwise hide a missing key.
func (mc minioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := mc.c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}
