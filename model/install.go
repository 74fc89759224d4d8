package model

import "time"

// InstallRecord describes a completed configuration install
type InstallRecord struct {
	Region       Region    `json:"region"`
	Root         string    `json:"root"`
	ConfigDir    string    `json:"config_dir"`
	ScriptPath   string    `json:"script_path"`
	ShortcutPath string    `json:"shortcut_path,omitempty"`
	Files        int64     `json:"files"`
	Bytes        int64     `json:"bytes"`
	InstalledAt  time.Time `json:"installed_at"`
}
