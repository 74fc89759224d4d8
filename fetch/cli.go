package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/spf13/afero"
)

// CLIErrorKind classifies a failed external download
type CLIErrorKind int

const (
	CLINotFound    CLIErrorKind = iota + 1 // binary missing or not executable
	CLIFailed                              // process exited non-zero
	CLIInterrupted                         // context cancelled or process killed by a signal
)

func (k CLIErrorKind) String() string {
	switch k {
	case CLINotFound:
		return "not found"
	case CLIFailed:
		return "failed"
	case CLIInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// CLIError is returned by CLISyncer when the external tool does not succeed
type CLIError struct {
	Kind     CLIErrorKind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CLIError) Error() string {
	msg := fmt.Sprintf("aws cli %s", e.Kind)
	if e.Kind == CLIFailed {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	if e.Err != nil && e.Kind != CLIFailed {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

var _ Syncer = (*CLISyncer)(nil)

// CLISyncer delegates recursive downloads to `aws s3 cp --recursive`
type CLISyncer struct {
	path   string
	bucket string
	args   []string
	env    []string
	fs     afero.Fs
	logger logger.Logger
}

// NewCLISyncer derives the command line from the source configuration.
// Static credentials are handed to the child process through its environment.
func NewCLISyncer(dl *config.DownloadConfig, src *config.SourceConfig, log logger.Logger) *CLISyncer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	dl.ApplyDefaults()

	s := &CLISyncer{
		path:   dl.CLIPath,
		bucket: src.BucketName(),
		fs:     afero.NewOsFs(),
		logger: log,
	}

	switch {
	case src.SourceType == config.SourceTypeMinio && src.Minio != nil:
		scheme := "http"
		if src.Minio.UseSSL {
			scheme = "https"
		}
		s.args = append(s.args, "--endpoint-url", scheme+"://"+src.Minio.Endpoint)
		if src.Minio.Region != "" {
			s.args = append(s.args, "--region", src.Minio.Region)
		}
		s.env = credentialEnv(src.Minio.AccessKeyID, src.Minio.SecretAccessKey)
	case src.S3 != nil:
		if src.S3.Region != "" {
			s.args = append(s.args, "--region", src.S3.Region)
		}
		if src.S3.Endpoint != "" {
			s.args = append(s.args, "--endpoint-url", src.S3.Endpoint)
		}
		if src.S3.Anonymous {
			s.args = append(s.args, "--no-sign-request")
		}
		s.env = credentialEnv(src.S3.AccessKeyID, src.S3.SecretAccessKey)
	}

	return s
}

func credentialEnv(id, secret string) []string {
	if id == "" {
		return nil
	}
	return []string{"AWS_ACCESS_KEY_ID=" + id, "AWS_SECRET_ACCESS_KEY=" + secret}
}

// Args returns the full argument list used for prefix -> localDir
func (s *CLISyncer) Args(prefix, localDir string) []string {
	args := []string{
		"s3", "cp",
		fmt.Sprintf("s3://%s/%s", s.bucket, prefix),
		localDir,
		"--recursive",
		"--only-show-errors",
	}
	return append(args, s.args...)
}

// SyncDirectory runs the CLI and inspects its exit status. The returned stats
// are gathered by walking localDir afterwards, so files left there by an
// earlier run are counted too.
func (s *CLISyncer) SyncDirectory(ctx context.Context, prefix, localDir string) (*Stats, error) {
	start := time.Now()
	args := s.Args(prefix, localDir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, args...)
	cmd.Stderr = &stderr
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}

	s.logger.Debug("Running %s %s", s.path, strings.Join(args, " "))
	err := cmd.Run()
	if err != nil {
		return &Stats{Duration: time.Since(start)}, classifyCLIError(ctx, err, stderr.String())
	}

	stats, err := s.walk(localDir)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	s.logger.Info("Download completed: %s", stats)
	return stats, nil
}

func classifyCLIError(ctx context.Context, err error, stderr string) error {
	if ctx.Err() != nil {
		return &CLIError{Kind: CLIInterrupted, ExitCode: -1, Stderr: stderr, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return &CLIError{Kind: CLIInterrupted, ExitCode: code, Stderr: stderr, Err: err}
		}
		return &CLIError{Kind: CLIFailed, ExitCode: code, Stderr: stderr, Err: err}
	}

	// exec.ErrNotFound, permission denied and friends
	return &CLIError{Kind: CLINotFound, ExitCode: -1, Stderr: stderr, Err: err}
}

func (s *CLISyncer) walk(localDir string) (*Stats, error) {
	stats := &Stats{}
	err := afero.Walk(s.fs, localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == localDir {
			return nil
		}
		if info.IsDir() {
			stats.Dirs++
			return nil
		}
		stats.Files++
		stats.Bytes += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		// nothing matched the prefix
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", localDir, err)
	}
	return stats, nil
}
