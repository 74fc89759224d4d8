package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	s3config "github.com/aws/aws-sdk-go-v2/config"
)

var _ SourceProvider = (*S3Source)(nil)

// S3API is the subset of the S3 client used here, so tests can supply a fake.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	client   S3API
	config   *config.S3Config
	throttle throttle
}

// NewS3Source builds a client from explicit configuration. Static keys are
// used when set, unsigned requests when Anonymous is set, and the SDK default
// credential chain otherwise.
func NewS3Source(ctx context.Context, cfg *config.S3Config, common *config.CommonSourceConfig) (*S3Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3config.LoadOptions) error{
		s3config.WithRegion(cfg.Region),
		// Suppress AWS SDK logging warnings about missing checksums
		s3config.WithClientLogMode(0),
	}
	switch {
	case cfg.AccessKeyID != "":
		opts = append(opts, s3config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	case cfg.Anonymous:
		opts = append(opts, s3config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	awsCfg, err := s3config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3SourceWithClient(client, cfg, common), nil
}

func newS3SourceWithClient(client S3API, cfg *config.S3Config, common *config.CommonSourceConfig) *S3Source {
	return &S3Source{
		client:   client,
		config:   cfg,
		throttle: newThrottle(common),
	}
}

func (c *S3Source) Bucket() string {
	return c.config.Bucket
}

// ListObjects retrieves all objects under a prefix without using Delimiter.
func (c *S3Source) ListObjects(ctx context.Context, prefix string) ([]model.RemoteObject, error) {
	var (
		objects           []model.RemoteObject
		continuationToken *string
	)

	for {
		resp, err := c.listPage(ctx, prefix, continuationToken)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", prefix, err)
		}

		for _, v := range resp.Contents {
			objects = append(objects, model.RemoteObject{
				Key:     aws.ToString(v.Key),
				ETag:    aws.ToString(v.ETag),
				Size:    aws.ToInt64(v.Size),
				ModTime: aws.ToTime(v.LastModified),
			})
		}

		if !aws.ToBool(resp.IsTruncated) || resp.NextContinuationToken == nil {
			break
		}
		continuationToken = resp.NextContinuationToken
	}

	return objects, nil
}

func (c *S3Source) listPage(ctx context.Context, prefix string, token *string) (*s3.ListObjectsV2Output, error) {
	reqCtx, cancel, err := c.throttle.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	return c.client.ListObjectsV2(reqCtx, &s3.ListObjectsV2Input{
		Bucket:            aws.String(c.config.Bucket),
		Prefix:            aws.String(prefix),
		ContinuationToken: token,
	})
}

// GetObject opens an object for streaming. The request context stays alive
// until the returned reader is closed.
func (c *S3Source) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	reqCtx, cancel, err := c.throttle.begin(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.client.GetObject(reqCtx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		cancel()
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, c.config.Bucket, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return &contextAwareReader{
		ReadCloser: result.Body,
		cancel:     cancel,
	}, nil
}
