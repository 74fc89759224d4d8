// Package launcher renders the FEWS start command, the shell script that runs
// it and the desktop entry pointing at that script.
package launcher

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const (
	// mode of both the start script and the desktop entry
	ScriptMode os.FileMode = 0755

	// Umask applied while launcher files are written
	Umask = 0022
)

var startCommandTmpl = template.Must(template.New("start").Parse(
	"{{.Root}}/linux/jre/bin/java" +
		" -Dregion.home={{.ConfigDir}}" +
		" -Xmx100m" +
		" -splash:{{.Root}}/fews-splash.jpg" +
		" -Djava.library.path={{.Root}}/linux" +
		" -XX:ErrorFile={{.ConfigDir}}/jvm-error.txt" +
		" -XX:-UsePerfData" +
		" -cp '{{.Root}}/*'" +
		" Delft.FEWS"))

var desktopEntryTmpl = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Name=FEWS.{{.Name}}
Type=Application
Exec={{.Exec}}
Terminal=false
Icon={{.Icon}}
`))

// StartCommand returns the java invocation that starts FEWS from fewsRoot
// with configDir as its region home.
func StartCommand(fewsRoot, configDir string) (string, error) {
	var buf bytes.Buffer
	err := startCommandTmpl.Execute(&buf, struct{ Root, ConfigDir string }{
		Root:      strings.TrimSuffix(fewsRoot, "/"),
		ConfigDir: strings.TrimSuffix(configDir, "/"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render start command: %w", err)
	}
	return buf.String(), nil
}

// WriteShellScript writes an executable bash script running command
func WriteShellScript(path, command string) error {
	return writeExecutable(path, []byte("#!/bin/bash\n"+command))
}

// WriteDesktopShortcut writes a freedesktop entry launching scriptPath
func WriteDesktopShortcut(path, scriptPath, name, iconPath string) error {
	var buf bytes.Buffer
	if err := desktopEntryTmpl.Execute(&buf, struct{ Name, Exec, Icon string }{
		Name: name,
		Exec: scriptPath,
		Icon: iconPath,
	}); err != nil {
		return fmt.Errorf("failed to render desktop entry: %w", err)
	}
	return writeExecutable(path, buf.Bytes())
}

func writeExecutable(path string, data []byte) error {
	return WithUmask(Umask, func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, ScriptMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		// WriteFile keeps the mode of an existing file
		if err := os.Chmod(path, ScriptMode); err != nil {
			return fmt.Errorf("failed to chmod %s: %w", path, err)
		}
		return nil
	})
}
