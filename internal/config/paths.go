package config

import (
	"os"
	"path/filepath"
)

// UserConfigDir returns $HOME/.circuitsage, where the user-level
// config.toml lives.
func UserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".circuitsage"), nil
}

// ProjectDir walks up from the working directory looking for a
// .circuitsage or .git directory, falling back to the working directory
// itself if neither is found.
func ProjectDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, ".circuitsage")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// EnsureConfigDirs creates the user and project config directories if
// they don't already exist.
func EnsureConfigDirs(userConfigDir, projectDir string) error {
	if err := os.MkdirAll(userConfigDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(projectDir, ".circuitsage"), 0755)
}
