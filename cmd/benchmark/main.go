// Command benchmark times a listing and a full download of one prefix, to
// pick a worker count and rate limit for a given network.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/fetch"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/RTIInternational/hefs-fews-hub/source"
)

func main() {
	prefix := flag.String("prefix", "MARFC/Config", "Prefix to list and download")
	workers := flag.Int("workers", 0, "Worker count (default: DOWNLOAD_WORKER_COUNT)")
	listOnly := flag.Bool("list-only", false, "Skip the download")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *workers > 0 {
		cfg.Download.WorkerCount = *workers
	}

	src, err := source.CreateSource(ctx, &cfg.Source)
	if err != nil {
		log.Fatalf("Failed to create source: %v", err)
	}

	start := time.Now()
	objects, err := src.ListObjects(ctx, *prefix)
	if err != nil {
		log.Fatalf("Listing failed: %v", err)
	}
	var total int64
	for _, o := range objects {
		total += o.Size
	}
	fmt.Printf("List: %d objects (%s) in %s\n", len(objects), humanize.Bytes(uint64(total)), time.Since(start))

	if *listOnly {
		return
	}

	dir, err := os.MkdirTemp("", "hefs-benchmark-*")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	dl := fetch.NewDownloader(src, nil, &cfg.Download, logger.NewNoOpLogger())
	stats, err := dl.DownloadDirectory(ctx, *prefix, dir)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}

	fmt.Printf("Download (%d workers): %s, %s/s\n", cfg.Download.WorkerCount, stats, humanize.Bytes(bytesPerSecond(stats)))
}

// bytesPerSecond is zero when the download took no measurable time
func bytesPerSecond(stats *fetch.Stats) uint64 {
	secs := stats.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(stats.Bytes) / secs)
}
