package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/fetch"
	"github.com/RTIInternational/hefs-fews-hub/installer"
	"github.com/RTIInternational/hefs-fews-hub/ledger"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/RTIInternational/hefs-fews-hub/source"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// services holds everything a command needs; built lazily so `--help` and
// `extract` work without credentials.
type services struct {
	cfg        *config.AppConfig
	log        logger.Logger
	logCloser  io.Closer
	source     source.SourceProvider
	downloader *fetch.Downloader
	ledger     ledger.Ledger
	service    *installer.Service
}

func loadConfig(cmd *cobra.Command, flags *flagValues) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFromFile(flags.configFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	applyFlags(cfg, cmd.Flags(), flags)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation error: %w", err)
	}
	return cfg, nil
}

func newServices(ctx context.Context, cmd *cobra.Command, flags *flagValues) (*services, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return nil, err
	}
	rt := &services{cfg: cfg, log: log, logCloser: closer}
	log.Debug("Configuration loaded and validated")

	rt.source, err = source.CreateSource(ctx, &cfg.Source)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	log.Info("Source initialized: type=%s, bucket=%s", cfg.Source.SourceType, rt.source.Bucket())

	rt.ledger, err = ledger.Open(&cfg.Ledger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.downloader = fetch.NewDownloader(rt.source, nil, &cfg.Download, log)

	var syncer fetch.Syncer
	if cfg.Download.Method == config.DownloadMethodCLI {
		syncer = fetch.NewCLISyncer(&cfg.Download, &cfg.Source, log)
		log.Info("Recursive downloads use %s", cfg.Download.CLIPath)
	}
	rt.service = installer.NewService(rt.downloader, syncer, rt.ledger, cfg, log)

	return rt, nil
}

func (rt *services) Close() {
	if rt.ledger != nil {
		if err := rt.ledger.Close(); err != nil {
			rt.log.Error("Error closing ledger: %v", err)
		}
	}
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
	}
}
