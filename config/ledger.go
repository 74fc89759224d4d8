package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LedgerConfig holds the configuration for the bbolt install ledger
type LedgerConfig struct {
	Disabled bool        `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	Path     string      `json:"path" yaml:"path" toml:"path"`                               // Path to bbolt DB file
	Bucket   string      `json:"bucket" yaml:"bucket" toml:"bucket"`                         // Name of the bucket
	Mode     os.FileMode `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"` // File open mode: "0600", "0644"
}

func (lc *LedgerConfig) Validate() error {
	if lc.Disabled {
		return nil
	}
	if lc.Path == "" {
		return fmt.Errorf("ledger path is required")
	}
	if lc.Bucket == "" {
		return fmt.Errorf("ledger bucket is required")
	}
	return nil
}

// ApplyDefaults sets default values if not provided
func (lc *LedgerConfig) ApplyDefaults() {
	if lc.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		lc.Path = filepath.Join(dir, "hefs-dashboard", "installs.db")
	}
	if lc.Bucket == "" {
		lc.Bucket = "installs"
	}
	if lc.Mode == 0 {
		lc.Mode = 0600
	}
}
