package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// File holds defaults read from <home>/config.toml. Command-line flags
// always win over file values.
type File struct {
	BuildType        string `toml:"build_type"`
	BuildTypeMapping string `toml:"build_type_mapping"`
	PackageRoot      string `toml:"package_root"`
	VSInstallDir     string `toml:"vs_install_dir"`
	VCToolset        string `toml:"vc_toolset"`
}

// LoadFile reads the user configuration file. A missing file is not an
// error and yields the zero value.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, fmt.Errorf("can't read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("can't parse config file %s: %w", path, err)
	}
	return f, nil
}
