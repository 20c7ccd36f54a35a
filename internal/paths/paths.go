// Package paths resolves where davstore keeps its configuration, its
// database and its attachments.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "davstore"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DAVSTORE_CONFIG_DIR"
	EnvDataDir   = "DAVSTORE_DATA_DIR"
)

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// attachmentsDirName is the subdirectory of the data directory holding
// per-table attachment folders.
const attachmentsDirName = "files"

// platform holds the host lookups; tests replace them.
var platform = struct {
	goos          string
	getenv        func(string) string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	getenv:        os.Getenv,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/davstore (fallback ~/.config/davstore)
// Others:  os.UserConfigDir()/davstore
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/davstore (fallback ~/.local/share/davstore)
// Others:  os.UserConfigDir()/davstore
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

func userDir(xdgVar string, homeRel ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := platform.getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, homeRel...), AppName)...), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// DAVSTORE_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, platform.getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory: flag, then the config file
// value, then DAVSTORE_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return firstAbs(DefaultDataDir, flag, configValue, platform.getenv(EnvDataDir))
}

// firstAbs returns the first non-empty candidate made absolute, or the
// fallback.
func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}

// AttachmentsDir returns the root of the per-table attachment folders for
// dataDir.
func AttachmentsDir(dataDir string) string {
	return filepath.Join(dataDir, attachmentsDirName)
}

// ConfigFile returns the configuration file path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
