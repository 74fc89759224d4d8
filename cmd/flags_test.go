package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/RTIInternational/hefs-fews-hub/config"
	"github.com/RTIInternational/hefs-fews-hub/model"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, *flagValues) {
	t.Helper()
	fv := &flagValues{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fv.register(fs)
	require.NoError(t, fs.Parse(args))
	return fs, fv
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := &config.AppConfig{
		Source: config.SourceConfig{
			SourceType: config.SourceTypeS3,
			S3:         &config.S3Config{Bucket: "from-env", Region: "us-west-2"},
		},
		Download: config.DownloadConfig{WorkerCount: 8},
		Fews:     config.FewsConfig{DownloadRoot: "/home/env"},
	}

	fs, fv := parseFlags(t, "--s3-bucket", "from-flag", "--workers", "3", "--root", "/data", "--no-ledger", "--s3-anonymous")
	applyFlags(cfg, fs, fv)

	require.Equal(t, "from-flag", cfg.Source.S3.Bucket)
	require.Equal(t, "us-west-2", cfg.Source.S3.Region)
	require.True(t, cfg.Source.S3.Anonymous)
	require.Equal(t, 3, cfg.Download.WorkerCount)
	require.Equal(t, "/data", cfg.Fews.DownloadRoot)
	require.True(t, cfg.Ledger.Disabled)
}

func TestApplyFlags_ExplicitZero(t *testing.T) {
	cfg := &config.AppConfig{Source: config.SourceConfig{Common: config.CommonSourceConfig{MaxRPS: 50}}}

	fs, fv := parseFlags(t, "--source-max-rps", "0")
	applyFlags(cfg, fs, fv)

	require.Zero(t, cfg.Source.Common.MaxRPS)
	require.NotNil(t, cfg.Source.S3)
}

func TestApplyFlags_MethodAndLogging(t *testing.T) {
	cfg := &config.AppConfig{}

	fs, fv := parseFlags(t, "--method", "cli", "--cli-path", "/usr/bin/aws", "--log-level", "debug", "--log-file", "/tmp/dashboard.log")
	applyFlags(cfg, fs, fv)

	require.Equal(t, config.DownloadMethodCLI, cfg.Download.Method)
	require.Equal(t, "/usr/bin/aws", cfg.Download.CLIPath)
	require.Equal(t, config.LogLevelDebug, cfg.Logger.Level)
	require.Equal(t, "/tmp/dashboard.log", cfg.Logger.File)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"dashboard", "install", "download-data", "download", "list", "installs", "extract"} {
		require.Contains(t, names, want)
	}
}

func TestRootCmd_InstallRejectsUnknownRegion(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"install", "XXRFC"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "XXRFC")
}

func TestRootCmd_Extract(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetArgs([]string{"extract", filepath.Join(dir, "missing.zip"), dir})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	require.Error(t, root.Execute())
}

func TestRootCmd_InstallsFromLedger(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "silent")
	t.Setenv("S3_ANONYMOUS", "true")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"installs", "--ledger-path", filepath.Join(dir, "installs.db"), "--root", dir})

	require.NoError(t, root.Execute())
	require.Equal(t, "No installs recorded\n", out.String())
}

func TestPrintInstalls(t *testing.T) {
	recs := []model.InstallRecord{{
		Region:      model.RegionABRFC,
		ConfigDir:   "/home/u/ABRFC",
		Files:       12,
		Bytes:       3_000_000,
		InstalledAt: time.Now().Add(-2 * time.Hour),
	}}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	require.NoError(t, printInstalls(root, recs, false))
	require.True(t, strings.HasPrefix(out.String(), "ABRFC  /home/u/ABRFC  12 files, 3.0 MB, installed 2 hours ago"))

	out.Reset()
	require.NoError(t, printInstalls(root, recs, true))
	require.Contains(t, out.String(), `"region": "ABRFC"`)
}

