package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Source   SourceConfig   `json:"source" yaml:"source" toml:"source"`
	Download DownloadConfig `json:"download" yaml:"download" toml:"download"`
	Fews     FewsConfig     `json:"fews" yaml:"fews" toml:"fews"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger" toml:"ledger"`
	Logger   LoggerConfig   `json:"logger" yaml:"logger" toml:"logger"`
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.Source.Validate(); err != nil {
		return fmt.Errorf("source config error: %w", err)
	}
	if err := ac.Download.Validate(); err != nil {
		return fmt.Errorf("download config error: %w", err)
	}
	if err := ac.Fews.Validate(); err != nil {
		return fmt.Errorf("fews config error: %w", err)
	}
	if err := ac.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	if ac.Source.SourceType == "" {
		ac.Source.SourceType = SourceTypeS3
	}
	ac.Source.Common.ApplyDefaults()
	if ac.Source.SourceType == SourceTypeS3 && ac.Source.S3 == nil {
		ac.Source.S3 = &S3Config{}
	}
	if ac.Source.S3 != nil {
		ac.Source.S3.ApplyDefaults()
	}
	ac.Download.ApplyDefaults()
	ac.Fews.ApplyDefaults()
	ac.Ledger.ApplyDefaults()
	ac.Logger.ApplyDefaults()
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory, if present, is loaded first; variables
// already set in the environment win.
func LoadFromEnv() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &AppConfig{}

	// Logger configuration
	cfg.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(LogLevelInfo)))
	cfg.Logger.File = getEnv("LOG_FILE", "")

	// Source configuration
	cfg.Source.SourceType = SourceType(getEnv("SOURCE_TYPE", string(SourceTypeS3)))
	cfg.Source.Common.TimeoutSeconds = getEnvInt("SOURCE_TIMEOUT_SECONDS", 0)
	cfg.Source.Common.MaxRPS = getEnvInt("SOURCE_MAX_RPS", 0)

	cfg.Source.S3 = &S3Config{
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          getEnv("S3_BUCKET", DefaultBucket),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		Anonymous:       getEnvBool("S3_ANONYMOUS", false),
	}

	if cfg.Source.SourceType == SourceTypeMinio || os.Getenv("MINIO_ENDPOINT") != "" {
		cfg.Source.Minio = &MinioConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", ""),
			Bucket:          getEnv("MINIO_BUCKET", DefaultBucket),
			Region:          getEnv("MINIO_REGION", ""),
			AccessKeyID:     getEnv("MINIO_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("MINIO_SECRET_ACCESS_KEY", ""),
			UseSSL:          getEnvBool("MINIO_USE_SSL", true),
		}
	}

	// Download configuration
	cfg.Download.Method = DownloadMethod(getEnv("DOWNLOAD_METHOD", string(DownloadMethodSDK)))
	cfg.Download.WorkerCount = getEnvInt("DOWNLOAD_WORKER_COUNT", 8)
	cfg.Download.CLIPath = getEnv("DOWNLOAD_CLI_PATH", "aws")
	cfg.Download.ExtractArchives = getEnvBool("DOWNLOAD_EXTRACT_ARCHIVES", false)

	// FEWS configuration
	cfg.Fews.InstallDir = getEnv("FEWS_INSTALL_DIR", DefaultFewsInstallDir)
	cfg.Fews.IconPath = getEnv("FEWS_ICON_PATH", DefaultFewsIconPath)
	cfg.Fews.DownloadRoot = getEnv("FEWS_DOWNLOAD_ROOT", "")
	cfg.Fews.DesktopDir = getEnv("FEWS_DESKTOP_DIR", "")
	cfg.Fews.PatchJarKey = getEnv("FEWS_PATCH_JAR_KEY", DefaultPatchJarKey)

	// Ledger configuration
	cfg.Ledger.Disabled = getEnvBool("LEDGER_DISABLED", false)
	cfg.Ledger.Path = getEnv("LEDGER_PATH", "")

	cfg.ApplyDefaults()

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file and applies defaults
func LoadFromFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()

	return cfg, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
