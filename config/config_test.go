package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"SOURCE_TYPE", "S3_BUCKET", "S3_REGION", "DOWNLOAD_METHOD", "FEWS_INSTALL_DIR", "LOG_LEVEL", "MINIO_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, SourceTypeS3, cfg.Source.SourceType)
	require.Equal(t, DefaultBucket, cfg.Source.S3.Bucket)
	require.Equal(t, "us-east-1", cfg.Source.S3.Region)
	require.Nil(t, cfg.Source.Minio)
	require.Equal(t, DownloadMethodSDK, cfg.Download.Method)
	require.Equal(t, 8, cfg.Download.WorkerCount)
	require.Equal(t, DefaultFewsInstallDir, cfg.Fews.InstallDir)
	require.Equal(t, DefaultFewsIconPath, cfg.Fews.IconPath)
	require.Equal(t, DefaultScriptName, cfg.Fews.ScriptName)
	require.Equal(t, LogLevelInfo, cfg.Logger.Level)
	require.Equal(t, "installs", cfg.Ledger.Bucket)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("S3_BUCKET", "other-bucket")
	t.Setenv("DOWNLOAD_METHOD", "cli")
	t.Setenv("DOWNLOAD_WORKER_COUNT", "3")
	t.Setenv("FEWS_INSTALL_DIR", "/srv/fews")
	t.Setenv("S3_ANONYMOUS", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "other-bucket", cfg.Source.BucketName())
	require.Equal(t, DownloadMethodCLI, cfg.Download.Method)
	require.Equal(t, 3, cfg.Download.WorkerCount)
	require.Equal(t, "/srv/fews", cfg.Fews.InstallDir)
	require.True(t, cfg.Source.S3.Anonymous)
}

func TestLoadFromEnv_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("S3_BUCKET=dotenv-bucket\n"), 0644))
	os.Unsetenv("S3_BUCKET")
	t.Cleanup(func() { os.Unsetenv("S3_BUCKET") })

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.Equal(t, "dotenv-bucket", cfg.Source.S3.Bucket)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
source:
  type: minio
  minio:
    endpoint: localhost:9000
    bucket: hefs
    use_ssl: false
download:
  method: sdk
  worker_count: 4
fews:
  install_dir: /opt/fews
  download_root: /data
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, SourceTypeMinio, cfg.Source.SourceType)
	require.Equal(t, "hefs", cfg.Source.BucketName())
	require.Equal(t, 4, cfg.Download.WorkerCount)
	require.Equal(t, "/data", cfg.Fews.DownloadRoot)
	require.Equal(t, LogLevelDebug, cfg.Logger.Level)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"unknown source", func(c *AppConfig) { c.Source.SourceType = "gcs" }, "unsupported source type"},
		{"half credentials", func(c *AppConfig) { c.Source.S3.AccessKeyID = "AKIA" }, "must be set together"},
		{"minio without config", func(c *AppConfig) { c.Source.SourceType = SourceTypeMinio }, "minio configuration is required"},
		{"bad method", func(c *AppConfig) { c.Download.Method = "rsync" }, "unsupported download method"},
		{"relative fews dir", func(c *AppConfig) { c.Fews.InstallDir = "fews" }, "must be absolute"},
		{"bad script name", func(c *AppConfig) { c.Fews.ScriptName = "a/b.sh" }, "bare file name"},
		{"bad log level", func(c *AppConfig) { c.Logger.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{}
			cfg.Fews.DownloadRoot = "/data"
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLedgerConfig_DisabledSkipsValidation(t *testing.T) {
	lc := &LedgerConfig{Disabled: true}
	require.NoError(t, lc.Validate())
}
