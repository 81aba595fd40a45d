// Package config defines the on-disk layout under the cxxpm home directory
// and the optional user configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// EnvHome overrides the default home directory (~/.cxxpm).
	EnvHome = "CXXPM_HOME"

	// ConfigFileName is the optional user configuration file inside the
	// home directory.
	ConfigFileName = "config.toml"
)

// Settings is the resolved global configuration of a single run.
type Settings struct {
	// HomeDir is the cxxpm home (default ~/.cxxpm).
	HomeDir string

	// DistrDir caches downloaded archives (<home>/distr).
	DistrDir string

	// PackageRoot contains the packages/ directory (default <home>/self).
	PackageRoot string

	// ExtraPackageDirs are additional per-package directories contributing
	// build files.
	ExtraPackageDirs []string

	// GlobalArgs is the argument string exported to build scripts as
	// CXXPM_ARGS so that nested invocations see the same package root.
	GlobalArgs string

	// LegacyExtraDirScan reproduces the historic extra-dir scan that
	// iterated the package root instead of the extra directory.
	LegacyExtraDirScan bool
}

// UserHomeDir returns the user's home directory: HOME on POSIX,
// HOMEDRIVE+HOMEPATH on Windows.
func UserHomeDir() (string, error) {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("HOMEDRIVE")
		path := os.Getenv("HOMEPATH")
		if drive == "" || path == "" {
			return "", fmt.Errorf("HOMEDRIVE and HOMEPATH must be set")
		}
		return drive + path, nil
	}

	home := os.Getenv("HOME")
	if home == "" {
		return "", fmt.Errorf("HOME must be set")
	}
	return home, nil
}

// DefaultHome resolves the cxxpm home directory: CXXPM_HOME when set,
// otherwise ~/.cxxpm.
func DefaultHome() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	userHome, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userHome, ".cxxpm"), nil
}

// New builds Settings rooted at home. packageRoot empty selects the bundled
// default <home>/self.
func New(home, packageRoot string) *Settings {
	if packageRoot == "" {
		packageRoot = filepath.Join(home, "self")
	}
	return &Settings{
		HomeDir:     home,
		DistrDir:    filepath.Join(home, "distr"),
		PackageRoot: packageRoot,
		GlobalArgs:  "--package-root=" + packageRoot,
	}
}

// SourceDir is the ephemeral source scratch directory.
func (s *Settings) SourceDir() string {
	return filepath.Join(s.HomeDir, ".s")
}

// BuildDir is the ephemeral build scratch directory.
func (s *Settings) BuildDir() string {
	return filepath.Join(s.HomeDir, ".b")
}

// PackagesDir is the directory containing one folder per package.
func (s *Settings) PackagesDir() string {
	return filepath.Join(s.PackageRoot, "packages")
}

// EnsureDirs creates the home and distr directories.
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.HomeDir, s.DistrDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("can't create directory at %s: %w", dir, err)
		}
	}
	return nil
}
