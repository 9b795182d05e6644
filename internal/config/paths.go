// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global Kuroryuu directory.
	GlobalDirName = ".kuroryuu"

	// ArchiveDirName is the name of the archived-sessions directory.
	ArchiveDirName = "archive"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
)

// GlobalDir returns the path to the global Kuroryuu directory (~/.kuroryuu/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalArchiveDir returns the path to the archived-sessions directory.
func GlobalArchiveDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ArchiveDirName), nil
}

// EnsureGlobalDir creates the global Kuroryuu directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureGlobalArchiveDir creates the archive directory if it doesn't exist.
func EnsureGlobalArchiveDir() error {
	dir, err := GlobalArchiveDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
