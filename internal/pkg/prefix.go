package pkg

import (
	"path/filepath"

	"github.com/jusblock/cxxpm/internal/checksum"
	"github.com/jusblock/cxxpm/internal/log"
	"github.com/jusblock/cxxpm/internal/sysinfo"
	"github.com/jusblock/cxxpm/internal/toolchain"
)

// idHexLen truncates the 256-bit hashes to 128 bits for directory names.
const idHexLen = 32

// Prefix derives the install prefix for a (package, version, toolchain,
// build type) tuple.
//
// Binary packages live under binary-packages/<name>-<version>. Source
// packages are content-addressed with two independent hashes, so that
// changing the build type does not invalidate the toolchain bucket:
//
//	<home>/<toolchain-id>/<name>/<version>-<buildType>-<package-id>
//
// The toolchain id hashes "<target-sys>-<target-proc>" followed by the
// compiler ids of the package languages, collapsing consecutive duplicates
// (C and C++ usually share one compiler).
func Prefix(home string, p *Package, compilers *toolchain.Compilers, info *sysinfo.SystemInfo, buildType string, logger log.Logger) string {
	if p.IsBinary {
		return filepath.Join(home, "binary-packages", p.Name+"-"+p.Version)
	}

	toolchainString := info.TargetSystemName + "-" + info.TargetSystemProcessor
	previousID := ""
	for _, lang := range p.Languages {
		id := compilers.Get(lang).ID
		if id != previousID {
			toolchainString += "-" + id
		}
		previousID = id
	}

	packageIDString := p.Version + "-" + buildType

	toolchainID := checksum.Sum([]byte(toolchainString))[:idHexLen]
	packageID := checksum.Sum([]byte(packageIDString))[:idHexLen]

	if logger != nil {
		logger.Debug("derived prefix ids",
			"toolchain", toolchainString, "toolchain_id", toolchainID,
			"package", packageIDString, "package_id", packageID)
	}

	return filepath.Join(home, toolchainID, p.Name, p.Version+"-"+buildType+"-"+packageID)
}

// UpdatePrefix fills p.Prefix for the given build type.
func UpdatePrefix(home string, p *Package, compilers *toolchain.Compilers, info *sysinfo.SystemInfo, buildType string, logger log.Logger) {
	p.Prefix = Prefix(home, p, compilers, info, buildType, logger)
}
