package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"github.com/RTIInternational/hefs-fews-hub/source"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// ErrUnsafeKey is returned when an object key would resolve outside the local root
var ErrUnsafeKey = errors.New("object key escapes local root")

// Syncer mirrors everything below a prefix into a local directory. Keys are
// placed relative to prefix, so "ABRFC/Config/a/b.xml" synced from
// "ABRFC/Config" into /tmp/x lands at /tmp/x/a/b.xml.
type Syncer interface {
	SyncDirectory(ctx context.Context, prefix, localDir string) (*Stats, error)
}

// Stats describes a finished (or aborted) recursive download
type Stats struct {
	Files    int64
	Dirs     int64
	Bytes    int64
	Duration time.Duration
}

func (s *Stats) String() string {
	return fmt.Sprintf("files=%d, dirs=%d, size=%s, took=%s",
		s.Files, s.Dirs, humanize.Bytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond))
}

var _ Syncer = (*Downloader)(nil)

// downloadFileMode matches what aws s3 cp leaves behind under the usual 022 umask
const downloadFileMode os.FileMode = 0644

// Downloader fetches objects from a source into a local filesystem
type Downloader struct {
	source           source.SourceProvider
	fs               afero.Fs
	workers          int
	progressInterval time.Duration
	logger           logger.Logger
}

// NewDownloader creates a Downloader. A nil fs means the OS filesystem.
func NewDownloader(src source.SourceProvider, fs afero.Fs, cfg *config.DownloadConfig, log logger.Logger) *Downloader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg == nil {
		cfg = &config.DownloadConfig{}
	}
	cfg.ApplyDefaults()

	return &Downloader{
		source:           src,
		fs:               fs,
		workers:          cfg.WorkerCount,
		progressInterval: time.Duration(cfg.ProgressInterval) * time.Second,
		logger:           log,
	}
}

// DownloadFile streams a single object to localPath, creating the parent
// chain first. Data goes to a temporary sibling that is renamed into place,
// so a failed transfer never leaves a partial file at localPath.
func (d *Downloader) DownloadFile(ctx context.Context, key, localPath string) (int64, error) {
	dir := filepath.Dir(localPath)
	if err := d.fs.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	reader, err := d.source.GetObject(ctx, key)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(localPath)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = d.fs.Chmod(tmpName, downloadFileMode)
	}
	if err == nil {
		err = d.fs.Rename(tmpName, localPath)
	}
	if err != nil {
		_ = d.fs.Remove(tmpName)
		return 0, fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	d.logger.Verbose("Downloaded %s -> %s (%s)", key, localPath, humanize.Bytes(uint64(n)))
	return n, nil
}

// DownloadDirectory downloads every object under prefix, placing each one at
// localRoot joined with its full key. Directory markers become empty
// directories. The first failure cancels the remaining transfers and is
// returned.
func (d *Downloader) DownloadDirectory(ctx context.Context, prefix, localRoot string) (*Stats, error) {
	return d.download(ctx, prefix, func(key string) (string, error) {
		return safeJoin(localRoot, key)
	})
}

// SyncDirectory downloads every object below prefix into localDir, relative
// to prefix. Only keys under "prefix/" are considered.
func (d *Downloader) SyncDirectory(ctx context.Context, prefix, localDir string) (*Stats, error) {
	dirPrefix := strings.TrimSuffix(prefix, "/") + "/"
	if prefix == "" {
		dirPrefix = ""
	}
	return d.download(ctx, dirPrefix, func(key string) (string, error) {
		return safeJoin(localDir, strings.TrimPrefix(key, dirPrefix))
	})
}

func (d *Downloader) download(ctx context.Context, prefix string, localPathFor func(key string) (string, error)) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	defer func() { stats.Duration = time.Since(start) }()

	d.logger.Debug("Listing objects under %s/%s", d.source.Bucket(), prefix)
	objects, err := d.source.ListObjects(ctx, prefix)
	if err != nil {
		return stats, err
	}

	var jobs []model.DownloadJob
	for _, obj := range objects {
		localPath, err := localPathFor(obj.Key)
		if err != nil {
			return stats, err
		}
		if obj.IsDirMarker() {
			if err := d.fs.MkdirAll(localPath, 0755); err != nil {
				return stats, fmt.Errorf("failed to create directory %s: %w", localPath, err)
			}
			stats.Dirs++
			continue
		}
		jobs = append(jobs, model.DownloadJob{Key: obj.Key, LocalPath: localPath, Size: obj.Size})
	}

	if len(jobs) == 0 {
		d.logger.Info("No files to download under %s", prefix)
		return stats, nil
	}
	d.logger.Info("Downloading %d files under %s", len(jobs), prefix)

	err = d.runPool(ctx, jobs, stats)
	if err == nil {
		d.logger.Info("Download completed: %s", stats)
	}
	return stats, err
}

type downloadResult struct {
	job model.DownloadJob
	err error
}

// runPool fans jobs out to a fixed number of workers. A failing worker
// cancels the shared context at once, so jobs not yet started are skipped and
// in-flight transfers abort.
func (d *Downloader) runPool(ctx context.Context, jobs []model.DownloadJob, stats *Stats) error {
	workerCount := d.workers
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	jobCh := make(chan model.DownloadJob, len(jobs))
	results := make(chan downloadResult, len(jobs))

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobCh {
				if err := workerCtx.Err(); err != nil {
					results <- downloadResult{job: job, err: err}
					continue
				}
				d.logger.Verbose("[Worker %d] Downloading %s", workerID, job.Key)
				n, err := d.DownloadFile(workerCtx, job.Key, job.LocalPath)
				if err != nil {
					cancel()
				} else {
					atomic.AddInt64(&stats.Bytes, n)
				}
				results <- downloadResult{job: job, err: err}
			}
		}(w)
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var processed int64
	stopProgress := d.startProgress(ctx, &processed, int64(len(jobs)), stats)
	defer stopProgress()

	// Jobs skipped after a worker cancelled can report before the failure
	// that caused it; they only count when nothing else failed.
	var firstErr, cancelledErr error
	for range jobs {
		res := <-results
		atomic.AddInt64(&processed, 1)
		if res.err != nil {
			if errors.Is(res.err, context.Canceled) && ctx.Err() == nil {
				if cancelledErr == nil {
					cancelledErr = fmt.Errorf("failed to download %s: %w", res.job.Key, res.err)
				}
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to download %s: %w", res.job.Key, res.err)
				d.logger.Error("Download of %s failed, cancelling remaining transfers: %v", res.job.Key, res.err)
				cancel()
			}
			continue
		}
		stats.Files++
	}
	wg.Wait()

	if firstErr == nil {
		firstErr = cancelledErr
	}
	return firstErr
}

func (d *Downloader) startProgress(ctx context.Context, processed *int64, total int64, stats *Stats) func() {
	if d.progressInterval <= 0 {
		return func() {}
	}

	progressCtx, progressCancel := context.WithCancel(ctx)
	ticker := time.NewTicker(d.progressInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				done := atomic.LoadInt64(processed)
				if done > 0 && done < total {
					percentage := float64(done) / float64(total) * 100
					d.logger.Info("Download progress: %d/%d files (%.1f%%), %s",
						done, total, percentage, humanize.Bytes(uint64(atomic.LoadInt64(&stats.Bytes))))
				}
			}
		}
	}()

	return progressCancel
}

// safeJoin joins a slash separated key onto root, refusing keys that resolve
// outside of it.
func safeJoin(root, key string) (string, error) {
	p := filepath.Join(root, filepath.FromSlash(key))
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeKey, key)
	}
	return p, nil
}
