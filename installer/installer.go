// Package installer drives the two user actions of the dashboard: installing
// a region's standalone configuration with its launchers, and downloading the
// region's historical data.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/RTIInternational/hefs-fews-hub/archive"
	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/fetch"
	"github.com/RTIInternational/hefs-fews-hub/launcher"
	"github.com/RTIInternational/hefs-fews-hub/ledger"
	"github.com/RTIInternational/hefs-fews-hub/logger"
	"github.com/RTIInternational/hefs-fews-hub/model"
	"github.com/RTIInternational/hefs-fews-hub/source"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrRootNotFound is returned when the chosen download root does not exist
var ErrRootNotFound = errors.New("download root does not exist")

// SkipPatchJar disables the patch jar download when used as the jar key
const SkipPatchJar = "-"

// Hooks lets a UI follow an install. Both callbacks may be nil.
type Hooks struct {
	// OnBusy is called with true when an install starts and false when it ends
	OnBusy func(busy bool)
	// OnStep receives a short description of the current step
	OnStep func(msg string)
}

type Service struct {
	downloader *fetch.Downloader
	syncer     fetch.Syncer
	ledger     ledger.Ledger
	fews       config.FewsConfig
	extract    bool
	logger     logger.Logger
	hooks      Hooks
	now        func() time.Time
}

// NewService wires an installer. syncer may be nil, in which case the
// downloader mirrors prefixes itself; ledger may be nil to skip bookkeeping.
func NewService(dl *fetch.Downloader, syncer fetch.Syncer, l ledger.Ledger, cfg *config.AppConfig, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if syncer == nil {
		syncer = dl
	}
	fews := cfg.Fews
	fews.ApplyDefaults()

	return &Service{
		downloader: dl,
		syncer:     syncer,
		ledger:     l,
		fews:       fews,
		extract:    cfg.Download.ExtractArchives,
		logger:     log,
		now:        time.Now,
	}
}

// SetHooks replaces the progress callbacks
func (s *Service) SetHooks(h Hooks) {
	s.hooks = h
}

func (s *Service) step(log logger.Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Info(msg)
	if s.hooks.OnStep != nil {
		s.hooks.OnStep(msg)
	}
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	return nil
}

// InstallConfiguration downloads the standalone configuration of region into
// <root>/<region>, writes the start script next to it, fetches the patch jar
// and global properties, and places a desktop shortcut.
func (s *Service) InstallConfiguration(ctx context.Context, region model.Region, root string) (*model.InstallRecord, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{"run": uuid.NewString(), "region": region})

	if s.hooks.OnBusy != nil {
		s.hooks.OnBusy(true)
		defer s.hooks.OnBusy(false)
	}

	configDir := filepath.Join(root, region.String())
	s.step(log, "Downloading %s configuration to %s", region, configDir)
	stats, err := s.syncer.SyncDirectory(ctx, region.ConfigPrefix(), filepath.Join(configDir, "Config"))
	if err != nil {
		log.Error("Configuration download failed: %v", err)
		return nil, fmt.Errorf("failed to download %s configuration: %w", region, err)
	}
	log.Info("Configuration downloaded: %s", stats)

	scriptPath := filepath.Join(configDir, s.fews.ScriptName)
	s.step(log, "Writing start script %s", scriptPath)
	startCmd, err := launcher.StartCommand(s.fews.InstallDir, configDir)
	if err != nil {
		return nil, err
	}
	if err := launcher.WriteShellScript(scriptPath, startCmd); err != nil {
		return nil, err
	}

	if err := s.fetchExtras(ctx, log, region, configDir); err != nil {
		return nil, err
	}

	var shortcutPath string
	if s.fews.DesktopDir != "" {
		shortcutPath = filepath.Join(s.fews.DesktopDir, region.String()+".desktop")
		s.step(log, "Creating desktop shortcut %s", shortcutPath)
		if err := launcher.WriteDesktopShortcut(shortcutPath, scriptPath, region.String(), s.fews.IconPath); err != nil {
			return nil, err
		}
	}

	rec := &model.InstallRecord{
		Region:       region,
		Root:         root,
		ConfigDir:    configDir,
		ScriptPath:   scriptPath,
		ShortcutPath: shortcutPath,
		Files:        stats.Files,
		Bytes:        stats.Bytes,
		InstalledAt:  s.now().UTC(),
	}
	if s.ledger != nil {
		if err := s.ledger.Put(*rec); err != nil {
			// the install itself is usable, so only warn
			log.Warn("Failed to record install: %v", err)
		}
	}

	s.step(log, "Installed %s (%d files, %s)", region, stats.Files, humanize.Bytes(uint64(stats.Bytes)))
	return rec, nil
}

// fetchExtras downloads the FEWS patch jar and the region's global properties.
// Neither is published for every region, so a missing object is only logged.
func (s *Service) fetchExtras(ctx context.Context, log logger.Logger, region model.Region, configDir string) error {
	type extra struct{ key, dest string }
	var extras []extra
	if s.fews.PatchJarKey != SkipPatchJar {
		extras = append(extras, extra{s.fews.PatchJarKey, filepath.Join(configDir, path.Base(s.fews.PatchJarKey))})
	}
	extras = append(extras, extra{region.GlobalPropertiesKey(), filepath.Join(configDir, "Config", "sa_global.properties")})

	for _, e := range extras {
		s.step(log, "Downloading %s", e.key)
		if _, err := s.downloader.DownloadFile(ctx, e.key, e.dest); err != nil {
			if errors.Is(err, source.ErrObjectNotFound) {
				log.Warn("Skipping %s: %v", e.key, err)
				continue
			}
			return fmt.Errorf("failed to download %s: %w", e.key, err)
		}
	}
	return nil
}

// DownloadHistoricalData mirrors the region's historical data into
// <root>/<region>/cardfiles. Archives found there are unpacked when
// extraction is enabled.
func (s *Service) DownloadHistoricalData(ctx context.Context, region model.Region, root string) (*fetch.Stats, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{"run": uuid.NewString(), "region": region})
	dataDir := filepath.Join(root, region.String(), "cardfiles")

	s.step(log, "Downloading %s historical data to %s", region, dataDir)
	stats, err := s.syncer.SyncDirectory(ctx, region.HistoricalDataPrefix(), dataDir)
	if err != nil {
		log.Error("Historical data download failed: %v", err)
		return nil, fmt.Errorf("failed to download %s historical data: %w", region, err)
	}

	if s.extract {
		n, err := ExtractArchives(dataDir)
		if err != nil {
			return stats, err
		}
		if n > 0 {
			log.Info("Extracted %d archives in %s", n, dataDir)
		}
	}

	s.step(log, "Downloaded %s historical data: %s", region, stats)
	return stats, nil
}

// ExtractArchives unpacks every archive directly inside dir into dir and
// returns how many were extracted.
func ExtractArchives(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !archive.HasArchiveExt(e.Name()) {
			continue
		}
		if err := archive.Extract(filepath.Join(dir, e.Name()), dir); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Installed lists recorded installs, or nothing when no ledger is configured
func (s *Service) Installed() ([]model.InstallRecord, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.List()
}

// Forget drops the ledger entry for region. Files on disk are left alone.
func (s *Service) Forget(region model.Region) error {
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Delete(region)
}
