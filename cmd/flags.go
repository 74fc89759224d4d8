package main

import (
	"github.com/spf13/pflag"

	"github.com/RTIInternational/hefs-fews-hub/config"
)

type flagValues struct {
	configFile string

	logLevel string
	logFile  string

	sourceType    string
	sourceTimeout int
	sourceMaxRPS  int

	s3Region    string
	s3Bucket    string
	s3AccessKey string
	s3SecretKey string
	s3Endpoint  string
	s3Anonymous bool

	method      string
	workerCount int
	cliPath     string
	extract     bool

	fewsDir    string
	root       string
	desktopDir string

	ledgerPath string
	noLedger   bool
}

func (fv *flagValues) register(fs *pflag.FlagSet) {
	fs.StringVarP(&fv.configFile, "config", "c", "", "YAML configuration file (replaces environment configuration)")

	fs.StringVar(&fv.logLevel, "log-level", "", "Log level: silent, error, info, debug, verbose (env: LOG_LEVEL)")
	fs.StringVar(&fv.logFile, "log-file", "", "Also append log output to this file (env: LOG_FILE)")

	fs.StringVar(&fv.sourceType, "source-type", "", "Object store type: s3, minio (env: SOURCE_TYPE)")
	fs.IntVar(&fv.sourceTimeout, "source-timeout", 0, "Per-request timeout in seconds (env: SOURCE_TIMEOUT_SECONDS)")
	fs.IntVar(&fv.sourceMaxRPS, "source-max-rps", 0, "Max requests per second, 0 = no limit (env: SOURCE_MAX_RPS)")

	fs.StringVar(&fv.s3Region, "s3-region", "", "S3 region (env: S3_REGION)")
	fs.StringVar(&fv.s3Bucket, "s3-bucket", "", "S3 bucket name (env: S3_BUCKET)")
	fs.StringVar(&fv.s3AccessKey, "s3-access-key", "", "S3 access key ID (env: S3_ACCESS_KEY_ID)")
	fs.StringVar(&fv.s3SecretKey, "s3-secret-key", "", "S3 secret access key (env: S3_SECRET_ACCESS_KEY)")
	fs.StringVar(&fv.s3Endpoint, "s3-endpoint", "", "S3 endpoint URL (env: S3_ENDPOINT)")
	fs.BoolVar(&fv.s3Anonymous, "s3-anonymous", false, "Send unsigned requests (env: S3_ANONYMOUS)")

	fs.StringVar(&fv.method, "method", "", "Download method: sdk, cli (env: DOWNLOAD_METHOD)")
	fs.IntVar(&fv.workerCount, "workers", 0, "Concurrent file downloads (env: DOWNLOAD_WORKER_COUNT)")
	fs.StringVar(&fv.cliPath, "cli-path", "", "aws CLI binary for the cli method (env: DOWNLOAD_CLI_PATH)")
	fs.BoolVar(&fv.extract, "extract", false, "Unpack archives in downloaded historical data (env: DOWNLOAD_EXTRACT_ARCHIVES)")

	fs.StringVar(&fv.fewsDir, "fews-dir", "", "FEWS installation directory (env: FEWS_INSTALL_DIR)")
	fs.StringVar(&fv.root, "root", "", "Download root directory (env: FEWS_DOWNLOAD_ROOT)")
	fs.StringVar(&fv.desktopDir, "desktop-dir", "", "Directory receiving desktop shortcuts (env: FEWS_DESKTOP_DIR)")

	fs.StringVar(&fv.ledgerPath, "ledger-path", "", "Install ledger database (env: LEDGER_PATH)")
	fs.BoolVar(&fv.noLedger, "no-ledger", false, "Do not record installs (env: LEDGER_DISABLED)")
}

// applyFlags overrides cfg with every flag set on the command line
func applyFlags(cfg *config.AppConfig, fs *pflag.FlagSet, flags *flagValues) {
	changed := fs.Changed

	// Logger
	if changed("log-level") {
		cfg.Logger.Level = config.LogLevel(flags.logLevel)
	}
	if changed("log-file") {
		cfg.Logger.File = flags.logFile
	}

	// Source
	if changed("source-type") {
		cfg.Source.SourceType = config.SourceType(flags.sourceType)
	}
	if changed("source-timeout") {
		cfg.Source.Common.TimeoutSeconds = flags.sourceTimeout
	}
	if changed("source-max-rps") {
		cfg.Source.Common.MaxRPS = flags.sourceMaxRPS
	}

	// S3
	if cfg.Source.S3 == nil {
		cfg.Source.S3 = &config.S3Config{}
	}
	if changed("s3-region") {
		cfg.Source.S3.Region = flags.s3Region
	}
	if changed("s3-bucket") {
		cfg.Source.S3.Bucket = flags.s3Bucket
	}
	if changed("s3-access-key") {
		cfg.Source.S3.AccessKeyID = flags.s3AccessKey
	}
	if changed("s3-secret-key") {
		cfg.Source.S3.SecretAccessKey = flags.s3SecretKey
	}
	if changed("s3-endpoint") {
		cfg.Source.S3.Endpoint = flags.s3Endpoint
	}
	if changed("s3-anonymous") {
		cfg.Source.S3.Anonymous = flags.s3Anonymous
	}

	// Download
	if changed("method") {
		cfg.Download.Method = config.DownloadMethod(flags.method)
	}
	if changed("workers") {
		cfg.Download.WorkerCount = flags.workerCount
	}
	if changed("cli-path") {
		cfg.Download.CLIPath = flags.cliPath
	}
	if changed("extract") {
		cfg.Download.ExtractArchives = flags.extract
	}

	// FEWS
	if changed("fews-dir") {
		cfg.Fews.InstallDir = flags.fewsDir
	}
	if changed("root") {
		cfg.Fews.DownloadRoot = flags.root
	}
	if changed("desktop-dir") {
		cfg.Fews.DesktopDir = flags.desktopDir
	}

	// Ledger
	if changed("ledger-path") {
		cfg.Ledger.Path = flags.ledgerPath
	}
	if changed("no-ledger") {
		cfg.Ledger.Disabled = flags.noLedger
	}
}
