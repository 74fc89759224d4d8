package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default locations of the pre-installed FEWS application
const (
	DefaultFewsInstallDir = "/opt/fews"
	DefaultFewsIconPath   = "/opt/fews/linux/fews_large.png"
	DefaultPatchJarKey    = "fews-install/fews-NA-202102-125264-patch.jar"
	DefaultScriptName     = "start_fews_standalone.sh"
)

// FewsConfig describes the local FEWS installation and where launchers are written
type FewsConfig struct {
	InstallDir   string `json:"install_dir" yaml:"install_dir" toml:"install_dir"`                            // FEWS binaries root
	IconPath     string `json:"icon_path,omitempty" yaml:"icon_path,omitempty" toml:"icon_path,omitempty"`    // icon referenced by the desktop entry
	DownloadRoot string `json:"download_root" yaml:"download_root" toml:"download_root"`                      // default root for downloaded configurations
	DesktopDir   string `json:"desktop_dir,omitempty" yaml:"desktop_dir,omitempty" toml:"desktop_dir"`        // where .desktop shortcuts are created
	PatchJarKey  string `json:"patch_jar_key,omitempty" yaml:"patch_jar_key,omitempty" toml:"patch_jar_key"`  // object key of the FEWS patch jar, "-" to skip
	ScriptName   string `json:"script_name,omitempty" yaml:"script_name,omitempty" toml:"script_name"`        // name of the generated start script
}

// Validate validates FEWS configuration
func (fc *FewsConfig) Validate() error {
	if fc.InstallDir == "" {
		return fmt.Errorf("fews install_dir is required")
	}
	if !filepath.IsAbs(fc.InstallDir) {
		return fmt.Errorf("fews install_dir must be absolute: %s", fc.InstallDir)
	}
	if fc.DownloadRoot == "" {
		return fmt.Errorf("fews download_root is required")
	}
	if fc.ScriptName != "" && filepath.Base(fc.ScriptName) != fc.ScriptName {
		return fmt.Errorf("fews script_name must be a bare file name: %s", fc.ScriptName)
	}
	return nil
}

// ApplyDefaults sets default values for FEWS configuration
func (fc *FewsConfig) ApplyDefaults() {
	if fc.InstallDir == "" {
		fc.InstallDir = DefaultFewsInstallDir
	}
	if fc.IconPath == "" {
		fc.IconPath = DefaultFewsIconPath
	}
	home, _ := os.UserHomeDir()
	if fc.DownloadRoot == "" {
		fc.DownloadRoot = home
	}
	if fc.DesktopDir == "" && home != "" {
		fc.DesktopDir = filepath.Join(home, "Desktop")
	}
	if fc.PatchJarKey == "" {
		fc.PatchJarKey = DefaultPatchJarKey
	}
	if fc.ScriptName == "" {
		fc.ScriptName = DefaultScriptName
	}
}
