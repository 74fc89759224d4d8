package source

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

func getS3ConfigFromEnv() *config.S3Config {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil
	}

	return &config.S3Config{
		Bucket:          bucket,
		Region:          os.Getenv("S3_REGION"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		Anonymous:       os.Getenv("S3_ACCESS_KEY_ID") == "",
	}
}

// mockS3Client simulates the AWS S3 client. Pages are keyed by continuation
// token ("" for the first page).
type mockS3Client struct {
	pages   map[string]*s3.ListObjectsV2Output
	objects map[string]string
	listErr error
	calls   int32
	tokens  []string
}

func (m *mockS3Client) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.listErr != nil {
		return nil, m.listErr
	}
	token := aws.ToString(input.ContinuationToken)
	m.tokens = append(m.tokens, token)
	if resp, ok := m.pages[token]; ok {
		return resp, nil
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockS3Client) GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func object(key string, size int64) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		ETag:         aws.String("\"etag\""),
		LastModified: aws.Time(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func newTestS3Source(client S3API) *S3Source {
	return newS3SourceWithClient(client, &config.S3Config{Bucket: "test-bucket"}, &config.CommonSourceConfig{})
}

func TestListObjects_Pagination(t *testing.T) {
	mockClient := &mockS3Client{
		pages: map[string]*s3.ListObjectsV2Output{
			"": {
				Contents:              []types.Object{object("ABRFC/Config/a.xml", 10), object("ABRFC/Config/sub/", 0)},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("page2"),
			},
			"page2": {
				Contents:    []types.Object{object("ABRFC/Config/sub/b.xml", 20)},
				IsTruncated: aws.Bool(false),
			},
		},
	}

	src := newTestS3Source(mockClient)
	objects, err := src.ListObjects(context.Background(), "ABRFC/Config")
	require.NoError(t, err)

	require.Len(t, objects, 3)
	require.Equal(t, "ABRFC/Config/a.xml", objects[0].Key)
	require.True(t, objects[1].IsDirMarker())
	require.Equal(t, int64(20), objects[2].Size)
	require.Equal(t, []string{"", "page2"}, mockClient.tokens)
}

func TestListObjects_TruncatedWithoutToken(t *testing.T) {
	mockClient := &mockS3Client{
		pages: map[string]*s3.ListObjectsV2Output{
			"": {Contents: []types.Object{object("k", 1)}, IsTruncated: aws.Bool(true)},
		},
	}

	objects, err := newTestS3Source(mockClient).ListObjects(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, int32(1), mockClient.calls)
}

func TestListObjects_ErrorIsNotRetried(t *testing.T) {
	mockClient := &mockS3Client{listErr: errors.New("AccessDenied")}

	_, err := newTestS3Source(mockClient).ListObjects(context.Background(), "ABRFC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "AccessDenied")
	require.Equal(t, int32(1), mockClient.calls)
}

func TestListKeys(t *testing.T) {
	mockClient := &mockS3Client{
		pages: map[string]*s3.ListObjectsV2Output{
			"": {Contents: []types.Object{object("a", 1), object("b/", 0)}},
		},
	}

	keys, err := ListKeys(context.Background(), newTestS3Source(mockClient), "")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b/"}, keys)
}

func TestGetObject(t *testing.T) {
	mockClient := &mockS3Client{objects: map[string]string{"ABRFC/sa_global.properties": "x=1"}}
	src := newTestS3Source(mockClient)

	r, err := src.GetObject(context.Background(), "ABRFC/sa_global.properties")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "x=1", string(data))
}

func TestGetObject_NotFound(t *testing.T) {
	src := newTestS3Source(&mockS3Client{})

	_, err := src.GetObject(context.Background(), "missing")
	require.ErrorIs(t, err, ErrObjectNotFound)
	require.Contains(t, err.Error(), "s3://test-bucket/missing")
}

func TestThrottle_RateLimitHonoursContext(t *testing.T) {
	th := newThrottle(&config.CommonSourceConfig{MaxRPS: 1})

	ctx, cancel := context.WithCancel(context.Background())
	_, c, err := th.begin(ctx)
	require.NoError(t, err)
	c()

	// burst is spent, the next wait must observe cancellation
	cancel()
	_, _, err = th.begin(ctx)
	require.Error(t, err)
}

func TestThrottle_Timeout(t *testing.T) {
	th := newThrottle(&config.CommonSourceConfig{TimeoutSeconds: 5})
	reqCtx, cancel, err := th.begin(context.Background())
	require.NoError(t, err)
	defer cancel()

	deadline, ok := reqCtx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

func TestCreateSource_InvalidConfig(t *testing.T) {
	_, err := CreateSource(context.Background(), &config.SourceConfig{SourceType: "ftp"})
	require.Error(t, err)

	_, err = CreateSource(context.Background(), &config.SourceConfig{SourceType: config.SourceTypeS3})
	require.Error(t, err)
}

func TestS3Source_ListObjects_Integration(t *testing.T) {
	cfg := getS3ConfigFromEnv()
	if cfg == nil {
		t.Skip("Skipping test because S3 environment variables are not set")
	}

	src, err := NewS3Source(context.Background(), cfg, &config.CommonSourceConfig{})
	require.NoError(t, err)

	objects, err := src.ListObjects(context.Background(), "ABRFC/")
	require.NoError(t, err)
	t.Logf("Found %d objects under ABRFC/", len(objects))
}
