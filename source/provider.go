package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"golang.org/x/time/rate"
)

// ErrObjectNotFound is returned (wrapped) when a requested key does not exist
var ErrObjectNotFound = errors.New("object not found")

type SourceProvider interface {
	// ListObjects returns every object under prefix, following continuation
	// tokens until the listing is exhausted. Directory markers are included.
	ListObjects(ctx context.Context, prefix string) ([]model.RemoteObject, error)
	// GetObject opens a single object for reading
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	// Bucket returns the bucket every operation is addressed to
	Bucket() string
}

func CreateSource(ctx context.Context, cfg *config.SourceConfig) (SourceProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source configuration: %w", err)
	}

	switch cfg.SourceType {
	case config.SourceTypeS3:
		return NewS3Source(ctx, cfg.S3, &cfg.Common)
	case config.SourceTypeMinio:
		return NewMinioSource(cfg.Minio, &cfg.Common)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.SourceType)
	}
}

// ListKeys returns the keys under prefix, markers included
func ListKeys(ctx context.Context, src SourceProvider, prefix string) ([]string, error) {
	objects, err := src.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// throttle applies the optional request rate limit and per-request timeout
// shared by all store implementations.
type throttle struct {
	limiter *rate.Limiter
	timeout time.Duration
}

func newThrottle(common *config.CommonSourceConfig) throttle {
	var t throttle
	if common == nil {
		return t
	}
	if common.MaxRPS > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(common.MaxRPS), common.MaxRPS) // burst = MaxRPS
	}
	if common.TimeoutSeconds > 0 {
		t.timeout = time.Duration(common.TimeoutSeconds) * time.Second
	}
	return t
}

// begin waits for a rate token and derives the request context.
// The returned cancel func must always be called.
func (t throttle) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}
	if t.timeout > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
		return reqCtx, cancel, nil
	}
	reqCtx, cancel := context.WithCancel(ctx)
	return reqCtx, cancel, nil
}

// contextAwareReader wraps an io.ReadCloser and cancels the request context on close
type contextAwareReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *contextAwareReader) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}
