package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

type mockMinioClient struct {
	infos   []minio.ObjectInfo
	objects map[string]string
	opts    minio.ListObjectsOptions
}

func (m *mockMinioClient) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	m.opts = opts
	ch := make(chan minio.ObjectInfo, len(m.infos))
	for _, info := range m.infos {
		ch <- info
	}
	close(ch)
	return ch
}

func (m *mockMinioClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newTestMinioSource(client MinioAPI) *MinioSource {
	return &MinioSource{client: client, config: &config.MinioConfig{Endpoint: "localhost:9000", Bucket: "hefs"}}
}

func TestMinioSource_ListObjects(t *testing.T) {
	client := &mockMinioClient{infos: []minio.ObjectInfo{
		{Key: "ABRFC/Config/a.xml", Size: 3},
		{Key: "ABRFC/Config/sub/"},
	}}

	objects, err := newTestMinioSource(client).ListObjects(context.Background(), "ABRFC/Config")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.True(t, objects[1].IsDirMarker())
	require.True(t, client.opts.Recursive)
	require.Equal(t, "ABRFC/Config", client.opts.Prefix)
}

func TestMinioSource_ListObjects_Error(t *testing.T) {
	client := &mockMinioClient{infos: []minio.ObjectInfo{{Err: errors.New("boom")}}}

	_, err := newTestMinioSource(client).ListObjects(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestMinioSource_GetObject(t *testing.T) {
	src := newTestMinioSource(&mockMinioClient{objects: map[string]string{"k": "v"}})

	r, err := src.GetObject(context.Background(), "k")
	require.NoError(t, err)
	data, _ := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.Equal(t, "v", string(data))

	_, err = src.GetObject(context.Background(), "missing")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewMinioSource_Validation(t *testing.T) {
	_, err := NewMinioSource(&config.MinioConfig{Bucket: "b"}, nil)
	require.Error(t, err)

	src, err := NewMinioSource(&config.MinioConfig{Endpoint: "localhost:9000", Bucket: "b"}, nil)
	require.NoError(t, err)
	require.Equal(t, "b", src.Bucket())
}
