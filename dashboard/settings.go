package dashboard

import (
	"fyne.io/fyne/v2"

	"github.com/RTIInternational/hefs-fews-hub/model"
)

// Preference keys
const (
	KeyRegion       = "last_region"
	KeyDownloadRoot = "download_root"
)

// Settings remembers the user's last choices between sessions
type Settings struct {
	prefs       fyne.Preferences
	defaultRoot string
}

func NewSettings(app fyne.App, defaultRoot string) *Settings {
	return &Settings{prefs: app.Preferences(), defaultRoot: defaultRoot}
}

// Region returns the last selected region, or the default one
func (s *Settings) Region() model.Region {
	r, err := model.ParseRegion(s.prefs.String(KeyRegion))
	if err != nil {
		return model.DefaultRegion
	}
	return r
}

func (s *Settings) SetRegion(r model.Region) {
	s.prefs.SetString(KeyRegion, r.String())
}

// DownloadRoot returns the last used download root, or the configured default
func (s *Settings) DownloadRoot() string {
	return s.prefs.StringWithFallback(KeyDownloadRoot, s.defaultRoot)
}

func (s *Settings) SetDownloadRoot(dir string) {
	s.prefs.SetString(KeyDownloadRoot, dir)
}
