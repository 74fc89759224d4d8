package config

import "fmt"

// DownloadMethod selects how recursive prefix downloads are performed
type DownloadMethod string

const (
	DownloadMethodSDK DownloadMethod = "sdk" // in-process worker pool
	DownloadMethodCLI DownloadMethod = "cli" // external `aws s3 cp --recursive`
)

// DownloadConfig holds the configuration for recursive downloads
type DownloadConfig struct {
	Method           DownloadMethod `json:"method,omitempty" yaml:"method,omitempty" toml:"method,omitempty"`
	WorkerCount      int            `json:"worker_count,omitempty" yaml:"worker_count,omitempty" toml:"worker_count,omitempty"`                // number of concurrent file downloads
	CLIPath          string         `json:"cli_path,omitempty" yaml:"cli_path,omitempty" toml:"cli_path,omitempty"`                            // aws CLI binary used by the cli method
	ExtractArchives  bool           `json:"extract_archives,omitempty" yaml:"extract_archives,omitempty" toml:"extract_archives,omitempty"`    // unpack archives found in historical data
	ProgressInterval int            `json:"progress_interval,omitempty" yaml:"progress_interval,omitempty" toml:"progress_interval,omitempty"` // seconds between progress log lines
}

// Validate validates download configuration
func (dc *DownloadConfig) Validate() error {
	switch dc.Method {
	case DownloadMethodSDK, DownloadMethodCLI, "":
	default:
		return fmt.Errorf("unsupported download method: %s (must be 'sdk' or 'cli')", dc.Method)
	}
	if dc.WorkerCount < 0 {
		return fmt.Errorf("worker_count cannot be negative")
	}
	if dc.ProgressInterval < 0 {
		return fmt.Errorf("progress_interval cannot be negative")
	}
	return nil
}

// ApplyDefaults sets default values for download configuration
func (dc *DownloadConfig) ApplyDefaults() {
	if dc.Method == "" {
		dc.Method = DownloadMethodSDK
	}
	if dc.WorkerCount <= 0 {
		dc.WorkerCount = 8
	}
	if dc.CLIPath == "" {
		dc.CLIPath = "aws"
	}
	if dc.ProgressInterval <= 0 {
		dc.ProgressInterval = 2
	}
}
